package handler

import (
	"errors"
	"geo-editor/auth"
	"geo-editor/bulkload"
	"geo-editor/editor"
	"geo-editor/export"
	"geo-editor/project"
	"geo-editor/session"
	"geo-editor/store"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	errReadOnly   = errors.New("your role cannot edit this project")
	errNoDraft    = errors.New("no draft to update")
	errNoExporter = errors.New("exports are not configured")
)

// statusFor 将业务错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, project.ErrForbidden), errors.Is(err, errReadOnly):
		return http.StatusForbidden
	case errors.Is(err, project.ErrNotFound), errors.Is(err, session.ErrNoSession),
		errors.Is(err, editor.ErrPointNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrUnsavedDraft), errors.Is(err, editor.ErrEditingDisabled),
		errors.Is(err, errNoDraft):
		return http.StatusConflict
	case errors.Is(err, session.ErrUnknownBasemap), errors.Is(err, bulkload.ErrInvalidCSV),
		errors.Is(err, export.ErrUnknownFormat), errors.Is(err, export.ErrUnknownStatus),
		errors.Is(err, export.ErrProjectRequired):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrCorrupt):
		return http.StatusBadGateway
	case errors.Is(err, errNoExporter):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, operation string, err error) {
	respondStatus(c, statusFor(err), operation, err)
}

func respondStatus(c *gin.Context, status int, operation string, err error) {
	if status >= http.StatusInternalServerError {
		logf(c, "error", operation, "error=%v", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// persistenceStatus 用于保存返回的错误
// 编辑器拒绝的操作保持原状态码，其余视为存储故障
func persistenceStatus(err error) int {
	if s := statusFor(err); s != http.StatusInternalServerError {
		return s
	}
	return http.StatusBadGateway
}
