// Package profiling exposes the runtime pprof handlers on a gin router.
package profiling

import (
	"net/http/pprof"

	"github.com/gin-gonic/gin"
)

// Prefix is where the handlers are mounted.
const Prefix = "/debug/pprof"

// Register mounts the standard pprof endpoints (heap, goroutine, profile,
// allocs, block, mutex and the rest of the runtime profiles) under Prefix.
func Register(router gin.IRouter) {
	g := router.Group(Prefix)
	g.GET("/", gin.WrapF(pprof.Index))
	g.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	g.GET("/profile", gin.WrapF(pprof.Profile))
	g.POST("/symbol", gin.WrapF(pprof.Symbol))
	g.GET("/symbol", gin.WrapF(pprof.Symbol))
	g.GET("/trace", gin.WrapF(pprof.Trace))
	g.GET("/:profile", func(c *gin.Context) {
		pprof.Handler(c.Param("profile")).ServeHTTP(c.Writer, c.Request)
	})
}
