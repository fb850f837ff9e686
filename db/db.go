package db

import (
	"fmt"
	"log"
	"os"

	"item_custody_service/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Department{}, &models.Item{}, &models.Subscription{}); err != nil {
		return err
	}

	// 同一 (user, item) 最多一条活跃申请；rejected 的行已删除，
	// 所以 state <> 'returned' 即活跃。应用层 ledger 先挡一道，这里是 DB 兜底。
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_active_per_pair
	  ON %s (user_id, item_id)
	  WHERE state <> 'returned';
	`, models.SubscriptionTable, models.SubscriptionTable)).Error; err != nil {
		return err
	}

	// 按用户翻历史更快
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_user_state_requested_desc
	  ON %s (user_id, state, requested_at DESC);
	`, models.SubscriptionTable, models.SubscriptionTable)).Error; err != nil {
		return err
	}

	return nil
}
