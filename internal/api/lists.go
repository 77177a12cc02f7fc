package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pflist/internal/grid"
	"pflist/internal/platform"
)

type textReq struct {
	Text string `json:"text"`
}

type sortReq struct {
	Column    string `json:"column" binding:"required"`
	Direction string `json:"direction"`
}

type listViewReq struct {
	Value string `json:"value"`
}

type saveReq struct {
	DraftValues []map[string]any `json:"draftValues"`
}

// session достаёт сессию по :list; при отсутствии отвечает 404
func (s *Server) session(c *gin.Context) (*Session, bool) {
	sess, ok := s.reg.Get(c.Param("list"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return nil, false
	}
	return sess, true
}

// GET /api/lists
func ListDefsHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.reg.Defs())
	}
}

// GET /api/lists/:list
func GetListHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.session(c)
		if !ok {
			return
		}
		// ошибка платформы попадает в снимок (поле error)
		_ = s.reg.EnsureLoaded(c.Request.Context(), sess)
		c.JSON(http.StatusOK, sess.Snapshot())
	}
}

// POST /api/lists/:list/refresh
func RefreshHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.session(c)
		if !ok {
			return
		}
		if err := s.reg.Fetch(c.Request.Context(), sess); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "list": sess.Snapshot()})
			return
		}
		c.JSON(http.StatusOK, sess.Snapshot())
	}
}

// PUT /api/lists/:list/search
func SearchHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.session(c)
		if !ok {
			return
		}
		var req textReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		_ = s.reg.EnsureLoaded(c.Request.Context(), sess)
		_ = sess.withView(func(v *grid.View) error {
			v.Search(req.Text)
			return nil
		})
		c.JSON(http.StatusOK, sess.Snapshot())
	}
}

// PUT /api/lists/:list/columns/:column/filter
func ColumnFilterHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.session(c)
		if !ok {
			return
		}
		var req textReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		_ = s.reg.EnsureLoaded(c.Request.Context(), sess)
		err := sess.withView(func(v *grid.View) error {
			return v.SetColumnFilter(c.Param("column"), req.Text)
		})
		if errors.Is(err, grid.ErrUnknownColumn) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sess.Snapshot())
	}
}

// POST /api/lists/:list/sort
// {column} — клик по заголовку (переключение направления), {column, direction} — явная сортировка
func SortHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.session(c)
		if !ok {
			return
		}
		var req sortReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON", "details": err.Error()})
			return
		}
		var dir grid.Direction
		if req.Direction != "" {
			d, err := grid.ParseDirection(req.Direction)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			dir = d
		}

		_ = s.reg.EnsureLoaded(c.Request.Context(), sess)
		err := sess.withView(func(v *grid.View) error {
			if dir != "" {
				return v.SortBy(req.Column, dir)
			}
			_, err := v.ToggleSort(req.Column)
			return err
		})
		if errors.Is(err, grid.ErrUnknownColumn) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sess.Snapshot())
	}
}

// PUT /api/lists/:list/listview
func ListViewHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.session(c)
		if !ok {
			return
		}
		var req listViewReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		if err := s.reg.SelectListView(c.Request.Context(), sess, req.Value); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "list": sess.Snapshot()})
			return
		}
		c.JSON(http.StatusOK, sess.Snapshot())
	}
}

// POST /api/lists/:list/filters/toggle
func ToggleFiltersHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.session(c)
		if !ok {
			return
		}
		_ = sess.withView(func(v *grid.View) error {
			v.ToggleFilters()
			return nil
		})
		c.JSON(http.StatusOK, sess.Snapshot())
	}
}

// POST /api/lists/:list/save
func SaveHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.session(c)
		if !ok {
			return
		}
		var req saveReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		if len(req.DraftValues) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": errNoDrafts.Error()})
			return
		}

		out, err := s.reg.Save(c.Request.Context(), sess, req.DraftValues)
		if errors.Is(err, grid.ErrDraftRow) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			body := gin.H{"error": err.Error(), "saved": out.Saved, "failed": out.Failed, "list": sess.Snapshot()}
			var pe *platform.Error
			if errors.As(err, &pe) && len(pe.Fields) > 0 {
				body["errors"] = pe.Fields
			}
			c.JSON(http.StatusBadGateway, body)
			return
		}
		c.JSON(http.StatusOK, gin.H{"saved": out.Saved, "list": sess.Snapshot()})
	}
}

// GET /api/lists/:list/new
func NewRecordHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.session(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": grid.NewRecordLink(sess.def.SObjectName)})
	}
}
