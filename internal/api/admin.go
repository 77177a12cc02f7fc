package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pflist/internal/catalog"
)

type reloadReq struct {
	CatalogDir string `json:"catalogDir"` // директория с *.dsl и *.yaml
}

// POST /api/admin/reload
func AdminReloadHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reloadReq
		if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		dir := strings.TrimSpace(req.CatalogDir)
		if dir == "" {
			dir = s.catalogDir
		}

		// 1) читаем каталог целиком
		cat, err := catalog.Load(dir)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Catalog load error", "details": err.Error()})
			return
		}

		// 2) линтер: любая проблема блокирует замену
		if issues := cat.Lint(); len(issues) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "catalog has blocking issues",
				"issues":     issues,
				"hint":       "fix catalog and retry",
				"catalogDir": dir,
			})
			return
		}

		// 3) схема хранилища, начальные записи, каталог движка
		if s.onReload != nil {
			if err := s.onReload(c.Request.Context(), cat); err != nil {
				s.log.Error("catalog reload failed", "dir", dir, "err", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Catalog apply error", "details": err.Error()})
				return
			}
		}

		// 4) сессии пересоздаются по новым определениям
		s.reg.Reset(cat.Lists)
		s.log.Info("catalog reloaded", "dir", dir, "objects", len(cat.Objects), "lists", len(cat.Lists))

		c.JSON(http.StatusOK, gin.H{
			"ok":         true,
			"catalogDir": dir,
			"objects":    len(cat.Objects),
			"lists":      len(cat.Lists),
			"listViews":  len(cat.ListViews),
		})
	}
}
