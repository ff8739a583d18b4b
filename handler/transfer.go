package handler

import (
	"errors"
	"geo-editor/bulkload"
	"geo-editor/export"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes CSV 上传大小上限
const maxUploadBytes = 10 << 20

// ImportTemplate 下载 CSV 模板
func (h *Handler) ImportTemplate(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="plantilla.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", bulkload.Template())
}

// ImportCSV 从上传的 CSV 导入点位 (multipart 的 "file" 字段或原始请求体)
func (h *Handler) ImportCSV(c *gin.Context) {
	p, ok := h.editableProject(c)
	if !ok {
		return
	}

	var r io.Reader
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			respondStatus(c, http.StatusBadRequest, "import_csv", errors.New(`multipart upload needs a "file" field`))
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondStatus(c, http.StatusBadRequest, "import_csv", err)
			return
		}
		defer f.Close()
		r = f
	} else {
		r = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	}

	report, err := h.Importer.Import(c.Request.Context(), p.ID, r)
	var crit *bulkload.CriticalError
	if errors.As(err, &crit) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":           crit.Error(),
			"critical_error":  true,
			"row":             crit.Row,
			"missing_headers": crit.MissingHeaders,
		})
		return
	}
	if err != nil {
		respondError(c, "import_csv", err)
		return
	}

	if err := h.Sessions.Reload(c.Request.Context(), p.ID); err != nil {
		logf(c, "warn", "import_csv", "reload failed: %v", err)
	}
	logf(c, "info", "import_csv", "project=%s inserted=%d errors=%d", p.ID, report.Inserted, report.TotalErrors)
	c.JSON(http.StatusOK, report)
}

// Export 将项目快照写入对象存储
func (h *Handler) Export(c *gin.Context) {
	p, ok := h.project(c)
	if !ok {
		return
	}
	if h.Exporter == nil {
		respondError(c, "export", errNoExporter)
		return
	}

	var req export.Request
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondStatus(c, http.StatusBadRequest, "export", err)
			return
		}
	}
	req.ProjectID = p.ID

	res, err := h.Exporter.Export(c.Request.Context(), req)
	if err != nil {
		respondStatus(c, persistenceStatus(err), "export", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
