package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pflist/internal/platform"
)

// rpcError — ответ с ошибкой в форме, которую понимает platform.Client
func rpcError(c *gin.Context, err error) {
	var pe *platform.Error
	if !errors.As(err, &pe) {
		pe = &platform.Error{Code: "UNKNOWN_EXCEPTION", Message: err.Error()}
	}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, platform.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, platform.ErrInvalid):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": pe})
}

// POST /rpc/initPFList
func InitListHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req platform.FetchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			rpcError(c, &platform.Error{Code: "JSON_PARSER_ERROR", Message: err.Error(), Err: platform.ErrInvalid})
			return
		}
		resp, err := s.engine.InitList(c.Request.Context(), &req)
		if err != nil {
			rpcError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// POST /rpc/saveRecord
func SaveRecordHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req platform.SaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			rpcError(c, &platform.Error{Code: "JSON_PARSER_ERROR", Message: err.Error(), Err: platform.ErrInvalid})
			return
		}
		res, err := s.engine.SaveRecord(c.Request.Context(), &req)
		if err != nil {
			rpcError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
