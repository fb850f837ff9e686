package routes

import (
	"time"

	"item_custody_service/app"
	"item_custody_service/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	uc := controllers.GetUserController(s.Repo, s.AppSess, a.Config)
	itemCtl := controllers.NewItemController(s)
	subCtl := controllers.NewSubscriptionController(s)

	// 复用的中间件
	authMW := app.AuthRequired(s.AppSess, s.Repo)
	headMW := app.HeadOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)

	// ------------------------------
	// 会话（公开+受保护）
	// ------------------------------
	r.POST("/login", s.Login)

	auth := r.Group("", authMW, seenMW)
	{
		auth.GET("/whoami", s.Whoami)
		auth.POST("/logout", s.Logout)
	}

	// ------------------------------
	// 用户管理（仅负责人）
	// ------------------------------
	users := r.Group("/api/users", authMW, headMW)
	{
		users.GET("", uc.ListUsers) // ?q=&page=&size=
		users.GET("/:id", uc.GetUser)
		users.DELETE("/:id", uc.DeleteUser)
	}

	// ------------------------------
	// 物品目录
	// ------------------------------
	itemsAdmin := r.Group("/api/items", authMW, headMW)
	{
		itemsAdmin.POST("", itemCtl.CreateItem)
	}
	items := r.Group("/api/items", authMW, seenMW)
	{
		items.GET("", itemCtl.ListItems)
	}

	// ------------------------------
	// 申领生命周期：request → approve/reject → return
	// ------------------------------
	subs := r.Group("/api/subscriptions", authMW, seenMW)
	{
		subs.POST("", subCtl.Request)
		subs.POST("/:code/return", subCtl.Return)
		subs.GET("", subCtl.List) // ?userId=&itemId=&state=
	}
	subsHead := r.Group("/api/subscriptions", authMW, headMW)
	{
		subsHead.POST("/:code/approve", subCtl.Approve)
		subsHead.POST("/:code/reject", subCtl.Reject)
	}
}
