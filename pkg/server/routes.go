package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers the checkpoint and node endpoints.
//
// Endpoints:
//
//	GET  /checkpoints/by_type?type=X - Checkpoints of one category
//	POST /checkpoints/by_type        - Same, category from {"type": "X"}
//	GET  /checkpoints/all            - Every category
//	POST /checkpoints/refresh        - Clear the cache and classify again
//	GET  /object_info                - Node descriptors keyed by id
//	POST /nodes/:id/invoke           - Invoke a node with JSON arguments
func RegisterRoutes(rg gin.IRoutes, h *Handlers) {
	rg.GET("/checkpoints/by_type", h.HandleByType)
	rg.POST("/checkpoints/by_type", h.HandleByType)
	rg.GET("/checkpoints/all", h.HandleAll)
	rg.POST("/checkpoints/refresh", h.HandleRefresh)

	rg.GET("/object_info", h.HandleObjectInfo)
	rg.POST("/nodes/:id/invoke", h.HandleInvoke)
}

// NewRouter builds the engine with recovery, request metrics and /metrics.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(recovery(h.log), instrument())
	if gin.Mode() == gin.DebugMode {
		router.Use(gin.Logger())
	}

	RegisterRoutes(router, h)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
