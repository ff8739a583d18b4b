package handler

import (
	"geo-editor/auth"
	"geo-editor/bulkload"
	"geo-editor/export"
	"geo-editor/project"
	"geo-editor/session"
	"geo-editor/store"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Deps HTTP 层依赖的服务 (Exporter 可以为 nil)
type Deps struct {
	Auth     *auth.Service
	Projects project.Directory
	Points   store.PointStore
	Sessions *session.Manager
	Importer *bulkload.Importer
	Exporter *export.Exporter
	Overlay  *session.Overlay

	HitToleranceMeters float64
	SaveTimeout        time.Duration
	LoginRate          float64
	LoginBurst         int
}

// Handler 编辑器 API
type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	if d.SaveTimeout <= 0 {
		d.SaveTimeout = 15 * time.Second
	}
	if d.LoginRate <= 0 {
		d.LoginRate = 1
	}
	if d.LoginBurst <= 0 {
		d.LoginBurst = 5
	}
	return &Handler{Deps: d}
}

// Register 在 r 上注册所有路由
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"status":  "ok",
		})
	})

	api := r.Group("/api")
	{
		// 公开接口 (无需认证)
		api.POST("/auth/login", RateLimit(h.LoginRate, h.LoginBurst), h.Login)
		api.GET("/style", h.Style)
		api.GET("/imports/template.csv", h.ImportTemplate)

		authorized := api.Group("")
		authorized.Use(AuthMiddleware(h.Auth))
		{
			authorized.DELETE("/session", h.Logout)

			authorized.GET("/projects", h.ListProjects)
			authorized.GET("/projects/:id", h.GetProject)
			authorized.GET("/projects/:id/points", h.ListPoints)
			authorized.PUT("/projects/:id/points", h.ReplacePoints)
			authorized.POST("/projects/:id/imports/csv", h.ImportCSV)
			authorized.POST("/projects/:id/exports", h.Export)

			sess := authorized.Group("/projects/:id/session")
			{
				sess.POST("", h.OpenSession)
				sess.GET("", h.GetSession)
				sess.POST("/editing", h.SetEditing)
				sess.POST("/tool", h.SelectTool)
				sess.POST("/gesture", h.Gesture)
				sess.PATCH("/draft", h.UpdateDraft)
				sess.POST("/draft/commit", h.CommitDraft)
				sess.POST("/draft/cancel", h.CancelDraft)
				sess.DELETE("/points/:pointId", h.DeletePoint)
				sess.GET("/features", h.Features)
				sess.POST("/surface", h.InitSurface)
			}
		}
	}
}
