package handler

import (
	"errors"
	"geo-editor/bulkload"
	"geo-editor/model"
	"geo-editor/store"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ListProjects 获取当前用户的项目列表
func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.Projects.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, "list_projects", err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// GetProject 根据 ID 获取项目 (包含当前用户的角色)
func (h *Handler) GetProject(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListPoints 获取项目的点位
// 带 ?q= 时按 id、名称或编码模糊匹配 (不区分大小写)
func (h *Handler) ListPoints(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	points, err := h.Points.Load(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, "list_points", err)
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, points)
		return
	}

	results := make([]model.Point, 0)
	for _, pt := range points {
		if matches(pt, query) {
			results = append(results, pt)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

// ReplacePoints 整体替换点位集合，并重新加载该项目上打开的会话
func (h *Handler) ReplacePoints(c *gin.Context) {
	p, ok := h.editableProject(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondStatus(c, http.StatusBadRequest, "replace_points", err)
		return
	}
	points, err := store.DecodePoints(body)
	if err != nil {
		respondStatus(c, http.StatusBadRequest, "replace_points", errors.New("body must be a JSON array of points"))
		return
	}

	saved, err := h.Points.Save(c.Request.Context(), p.ID, points)
	if err != nil {
		respondStatus(c, persistenceStatus(err), "replace_points", err)
		return
	}
	if err := h.Sessions.Reload(c.Request.Context(), p.ID); err != nil {
		logf(c, "warn", "replace_points", "reload failed: %v", err)
	}
	c.JSON(http.StatusOK, saved)
}

// project 解析 :id 对应的项目，无权限或不存在时直接返回 403/404
func (h *Handler) project(c *gin.Context) (model.Project, bool) {
	p, err := h.Projects.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, "get_project", err)
		return model.Project{}, false
	}
	return p, true
}

func (h *Handler) editableProject(c *gin.Context) (model.Project, bool) {
	p, ok := h.project(c)
	if !ok {
		return p, false
	}
	if !p.Role.CanEdit() {
		respondError(c, "check_role", errReadOnly)
		return p, false
	}
	return p, true
}

func matches(p model.Point, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.ID), q) || strings.Contains(strings.ToLower(p.Name), q) {
		return true
	}
	code, _ := p.Attributes[bulkload.CodeAttribute].(string)
	return code != "" && strings.Contains(strings.ToLower(code), q)
}
