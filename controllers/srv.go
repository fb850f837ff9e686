// controllers/srv.go
package controllers

import (
	"net/http"
	"strings"
	"time"

	"item_custody_service/app"
	"item_custody_service/db"
	"item_custody_service/session"
	"item_custody_service/subscription"
)

type Srv struct {
	Repo      *db.Repo
	Subs      *subscription.Service
	Store     *db.SubscriptionStore
	AppSess   *session.AppSessionStore
	WebOrigin string
	Cfg       app.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:      db.NewRepo(a.DB),
		Subs:      a.Subs,
		Store:     db.NewSubscriptionStore(a.DB),
		AppSess:   a.AppSessions(),
		WebOrigin: a.Config.WebOrigin,
		Cfg:       a.Config,
	}
}

// --- helpers ---

// 统一设置业务会话 Cookie
func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}
