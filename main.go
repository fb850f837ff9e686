package main

import (
	"context"
	"log"
	"os"

	"item_custody_service/app"
	"item_custody_service/db"
	"item_custody_service/routes"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	application := app.MustNew()
	defer application.Close()

	app.BootstrapDepartment(context.Background(), application.Config, db.NewRepo(application.DB))

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	routes.RegisterRoutes(r, application)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Printf("listening on :%s", port)
	_ = r.Run(":" + port)
}
