package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求 (兼容旧客户端的 "username" 字段，等同于 email)
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// Login 处理用户登录，返回 Bearer Token
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondStatus(c, http.StatusBadRequest, "login", errors.New("email/username and password are required"))
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = strings.TrimSpace(req.Username)
	}
	if email == "" {
		respondStatus(c, http.StatusBadRequest, "login", errors.New("email/username and password are required"))
		return
	}

	sess, err := h.Auth.Login(c.Request.Context(), email, req.Password)
	if err != nil {
		respondError(c, "login", err)
		return
	}
	logf(c, "info", "login", "user=%s", sess.UserID)
	c.JSON(http.StatusOK, sess)
}

// Logout 关闭当前用户的编辑会话
func (h *Handler) Logout(c *gin.Context) {
	h.Sessions.Close(currentUser(c))
	c.Status(http.StatusNoContent)
}
