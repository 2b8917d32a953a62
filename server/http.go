package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inference-sim/warehouse-sim/sim"
	"github.com/inference-sim/warehouse-sim/sim/warehouse"
)

// NewRouter exposes the registry:
//
//	POST /simulations      submit a config map, returns {"task_id": ...}
//	GET  /simulations/:id  run status, with results or error once finished
//	GET  /metrics          Prometheus scrape endpoint, when m is not nil
func NewRouter(reg *Registry, m *Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/simulations", submitHandler(reg))
	router.GET("/simulations/:id", statusHandler(reg))
	if m != nil {
		handler := m.Handler()
		router.GET("/metrics", func(c *gin.Context) {
			handler.ServeHTTP(c.Writer, c.Request)
		})
	}
	return router
}

func submitHandler(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var raw map[string]any
		if err := c.ShouldBindJSON(&raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
			return
		}
		cfg, err := warehouse.CoerceConfig(raw)
		if err != nil {
			writeSubmitError(c, err)
			return
		}
		id, err := reg.Submit(c.Request.Context(), cfg)
		if err != nil {
			writeSubmitError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"task_id": id})
	}
}

func writeSubmitError(c *gin.Context, err error) {
	var cerr *sim.ConfigError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": cerr.Error(), "field": cerr.Field})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func statusHandler(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := reg.Status(c.Param("id"))
		if errors.Is(err, ErrUnknownRun) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
