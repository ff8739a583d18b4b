package handler

import (
	"context"
	"errors"
	"geo-editor/editor"
	"geo-editor/features"
	"geo-editor/model"
	"geo-editor/session"
	"geo-editor/utils"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// SessionResponse 前端渲染所需的完整会话
type SessionResponse struct {
	Project model.Project        `json:"project"`
	State   editor.State         `json:"state"`
	View    session.ViewSnapshot `json:"view"`
}

type surfaceRequest struct {
	Basemap string `json:"basemap"`
}

type editingRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type toolRequest struct {
	Tool editor.Mode `json:"tool" binding:"required"`
}

// OpenSession 为当前用户打开项目 (替换之前的会话)
// 如果传了 basemap，同时初始化地图
func (h *Handler) OpenSession(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	var req surfaceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondStatus(c, http.StatusBadRequest, "open_session", err)
			return
		}
	}

	s, err := h.Sessions.Open(c.Request.Context(), currentUser(c), p)
	if err != nil {
		respondStatus(c, persistenceStatus(err), "open_session", err)
		return
	}
	if req.Basemap != "" {
		if err := s.InitSurface(req.Basemap); err != nil {
			respondError(c, "open_session", err)
			return
		}
	}
	logf(c, "info", "open_session", "user=%s project=%s", currentUser(c), p.ID)
	c.JSON(http.StatusOK, sessionResponse(s))
}

// GetSession 获取当前用户在 :id 上的会话
func (h *Handler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse(s))
}

// SetEditing 开关编辑 (Viewer 不能开启)
func (h *Handler) SetEditing(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req editingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondStatus(c, http.StatusBadRequest, "set_editing", err)
		return
	}
	if *req.Enabled && !s.Project().Role.CanEdit() {
		respondError(c, "set_editing", errReadOnly)
		return
	}
	s.Controller.SetEditingEnabled(*req.Enabled)
	c.JSON(http.StatusOK, s.Controller.State())
}

// SelectTool 在 query、create、edit 之间切换
func (h *Handler) SelectTool(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req toolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondStatus(c, http.StatusBadRequest, "select_tool", err)
		return
	}
	if !req.Tool.Valid() {
		respondStatus(c, http.StatusBadRequest, "select_tool", errors.New("tool must be query, create or edit"))
		return
	}
	if err := s.Controller.SelectTool(req.Tool); err != nil {
		respondError(c, "select_tool", err)
		return
	}
	c.JSON(http.StatusOK, s.Controller.State())
}

// Gesture 将一次指针事件交给控制器
// 没有命中要素的 click 和 mousedown 会对已渲染的点位做命中检测
func (h *Handler) Gesture(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var g editor.Gesture
	if err := c.ShouldBindJSON(&g); err != nil {
		respondStatus(c, http.StatusBadRequest, "gesture", err)
		return
	}
	switch g.Kind {
	case editor.GestureClick, editor.GestureMouseDown, editor.GestureMouseMove, editor.GestureMouseUp:
	default:
		respondStatus(c, http.StatusBadRequest, "gesture", errors.New("unknown gesture kind"))
		return
	}
	if g.Kind != editor.GestureMouseUp && !utils.ValidLngLat(g.Coords) {
		respondStatus(c, http.StatusBadRequest, "gesture", errors.New("coords must be [lng, lat] within WGS84 range"))
		return
	}

	s.Controller.Dispatch(s.Annotate(g, h.HitToleranceMeters))
	c.JSON(http.StatusOK, s.Controller.State())
}

// UpdateDraft 将表单修改应用到草稿
func (h *Handler) UpdateDraft(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var patch editor.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondStatus(c, http.StatusBadRequest, "update_draft", err)
		return
	}
	if !s.Controller.UpdateDraft(patch) {
		respondError(c, "update_draft", errNoDraft)
		return
	}
	c.JSON(http.StatusOK, s.Controller.State())
}

// CommitDraft 保存草稿 (失败时草稿保留)
func (h *Handler) CommitDraft(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.SaveTimeout)
	defer cancel()

	if err := s.Controller.CommitDraft(ctx); err != nil {
		respondStatus(c, persistenceStatus(err), "commit_draft", err)
		return
	}
	c.JSON(http.StatusOK, s.Controller.State())
}

// CancelDraft 丢弃草稿
func (h *Handler) CancelDraft(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Controller.CancelDraft()
	c.JSON(http.StatusOK, s.Controller.State())
}

// DeletePoint 删除点位并保存
func (h *Handler) DeletePoint(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.SaveTimeout)
	defer cancel()

	if err := s.Controller.DeletePoint(ctx, c.Param("pointId")); err != nil {
		respondStatus(c, persistenceStatus(err), "delete_point", err)
		return
	}
	c.JSON(http.StatusOK, s.Controller.State())
}

// Features 获取地图数据
// 带 ?since=<version> 且没有变化时返回 304
func (h *Handler) Features(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	snap := s.View.Snapshot()
	if since := c.Query("since"); since != "" {
		if v, err := strconv.ParseUint(since, 10, 64); err == nil && v == snap.Version {
			c.Status(http.StatusNotModified)
			return
		}
	}
	c.JSON(http.StatusOK, snap)
}

// InitSurface 标记前端地图已就绪，并推送排队中的要素
func (h *Handler) InitSurface(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req surfaceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondStatus(c, http.StatusBadRequest, "init_surface", err)
			return
		}
	}
	if err := s.InitSurface(req.Basemap); err != nil {
		respondError(c, "init_surface", err)
		return
	}
	c.JSON(http.StatusOK, s.View.Snapshot())
}

// Style 获取点位样式和底图
func (h *Handler) Style(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"paint":         features.LayerPaint(),
		"statusColors":  features.StatusColors,
		"fallbackColor": features.FallbackColor,
		"statuses":      model.Statuses,
		"basemaps":      session.Basemaps,
		"overlay":       h.Overlay,
	})
}

func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.Sessions.GetProject(currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, "get_session", err)
		return nil, false
	}
	return s, true
}

func sessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		Project: s.Project(),
		State:   s.Controller.State(),
		View:    s.View.Snapshot(),
	}
}
