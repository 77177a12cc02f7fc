// api/router.go
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"pflist/internal/catalog"
	"pflist/internal/platform"
)

// Server — HTTP-обвязка списков. engine == nil, если платформа удалённая:
// тогда нет /rpc/* и /api/meta/*.
type Server struct {
	reg        *Registry
	engine     *platform.Engine
	catalogDir string
	log        *slog.Logger
	onReload   func(ctx context.Context, cat *catalog.Catalog) error
}

type Options struct {
	Lists      []catalog.ListDef
	Service    platform.Service
	Engine     *platform.Engine
	CatalogDir string
	Logger     *slog.Logger
	// OnReload применяет новый каталог (DDL, seed, каталог движка) до пересоздания сессий
	OnReload func(ctx context.Context, cat *catalog.Catalog) error
}

func NewServer(o Options) *Server {
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		reg:        NewRegistry(o.Lists, o.Service, log),
		engine:     o.Engine,
		catalogDir: o.CatalogDir,
		log:        log,
		onReload:   o.OnReload,
	}
}

func (s *Server) Registry() *Registry { return s.reg }

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/lists", ListDefsHandler(s))
		apiGroup.GET("/lists/:list", GetListHandler(s))
		apiGroup.GET("/lists/:list/new", NewRecordHandler(s))
		apiGroup.POST("/lists/:list/refresh", RefreshHandler(s))
		apiGroup.PUT("/lists/:list/search", SearchHandler(s))
		apiGroup.PUT("/lists/:list/columns/:column/filter", ColumnFilterHandler(s))
		apiGroup.POST("/lists/:list/sort", SortHandler(s))
		apiGroup.PUT("/lists/:list/listview", ListViewHandler(s))
		apiGroup.POST("/lists/:list/filters/toggle", ToggleFiltersHandler(s))
		apiGroup.POST("/lists/:list/save", SaveHandler(s))

		apiGroup.POST("/admin/reload", AdminReloadHandler(s))
	}

	if s.engine != nil {
		apiGroup.GET("/meta/objects", MetaListHandler(s))
		apiGroup.GET("/meta/objects/:object", MetaObjectHandler(s))

		rpc := r.Group("/rpc")
		rpc.POST("/initPFList", InitListHandler(s))
		rpc.POST("/saveRecord", SaveRecordHandler(s))
	}
	return r
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelDebug
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		log.LogAttrs(c.Request.Context(), level, "http",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", status),
			slog.Duration("took", time.Since(start)),
		)
	}
}
