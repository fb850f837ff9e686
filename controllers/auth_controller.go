// controllers/auth_controller.go
package controllers

import (
	"net/http"
	"strings"

	"item_custody_service/app"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 身份只是脚手架：拿 username 换会话，核心信任中间件注入的 userID。

// POST /login  body: {username}
func (s *Srv) Login(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	u, err := s.Repo.FindUserByUsername(c.Request.Context(), strings.ToLower(strings.TrimSpace(in.Username)))
	if err != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unknown user"})
		return
	}

	if err := s.Repo.TouchUserLogin(c.Request.Context(), u.ID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		// 不阻塞
	}
	sid := uuid.NewString()
	if err := s.AppSess.Create(c.Request.Context(), sid, u.ID); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	s.setAppCookie(c.Writer, sid, s.Cfg.SessionTTL)
	c.JSON(http.StatusOK, app.H{"ok": true, "userID": u.ID, "isHead": u.IsHead})
}

// POST /logout
func (s *Srv) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = s.AppSess.Delete(c.Request.Context(), ck.Value)
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   strings.HasPrefix(s.WebOrigin, "https://"),
	})
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /whoami
func (s *Srv) Whoami(c *gin.Context) {
	v, _ := c.Get("userID")
	uid, _ := v.(string)
	name, _ := c.Get("username")
	isHead, _ := c.Get("isHead")
	c.JSON(http.StatusOK, app.H{
		"userID":   uid,
		"username": name,
		"isHead":   isHead,
	})
}
