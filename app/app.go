package app

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"item_custody_service/db"
	"item_custody_service/events"
	"item_custody_service/notify"
	"item_custody_service/session"
	"item_custody_service/subscription"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Bus    *events.Bus
	Subs   *subscription.Service
	Config Config

	appSess *session.AppSessionStore
}

// Config 从环境变量读取
type Config struct {
	RedisAddr     string
	RedisPwd      string
	WebOrigin     string
	SessionTTL    time.Duration
	BootstrapDept string
	BootstrapHead string
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

func MustNew() *App {
	cfg := loadConfig()

	// --- DB: Postgres ---
	dbConn := db.ConnectDB()

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	// --- 订阅生命周期：ledger + bus + 监听器，启动时一次性接好 ---
	repo := db.NewRepo(dbConn)
	bus := events.NewBus()
	ledger := subscription.NewLedger(db.NewSubscriptionStore(dbConn))
	svc := subscription.NewService(ledger, bus)
	subscription.RegisterListeners(bus, repo, notify.NewRedisNotifier(rdb))

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)
	a := &App{
		Router: r, DB: dbConn, RDB: rdb, Bus: bus, Subs: svc, Config: cfg,
		appSess: session.NewAppSessionStore(rdb, cfg.SessionTTL),
	}
	return a
}

func (a *App) Close() {
	a.Bus.Wait() // 把在途通知发完再退
	_ = a.RDB.Close()
}

func loadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}
	ttlSec := get("SESSION_TTL_SECONDS", "86400")
	var ttl time.Duration = 24 * time.Hour
	if d, err := time.ParseDuration(ttlSec + "s"); err == nil {
		ttl = d
	}
	return Config{
		RedisAddr:     get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:      os.Getenv("REDIS_PASSWORD"),
		WebOrigin:     get("WEB_ORIGIN", "http://localhost:3000"),
		SessionTTL:    ttl,
		BootstrapDept: strings.TrimSpace(os.Getenv("BOOTSTRAP_DEPARTMENT")),
		BootstrapHead: strings.TrimSpace(strings.ToLower(os.Getenv("BOOTSTRAP_HEAD_EMAIL"))),
	}
}
