package profiling_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/cooper/infrastructure/profiling"
)

func TestRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	profiling.Register(router)

	tests := []struct {
		path     string
		contains string
	}{
		{path: "/debug/pprof/", contains: "goroutine"},
		{path: "/debug/pprof/goroutine?debug=1", contains: "goroutine profile"},
		{path: "/debug/pprof/cmdline", contains: ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}
