package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestResult(t *testing.T) {
	if got := Result(nil); got != ResultOK {
		t.Errorf("Result(nil) = %q", got)
	}
	if got := Result(errors.New("x")); got != ResultError {
		t.Errorf("Result(err) = %q", got)
	}
}

func TestGinMiddleware_CountsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/things/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/things/:id", "418"))
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/42", nil))
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/things/:id", "418"))
	if after-before != 2 {
		t.Errorf("request counter grew by %v, want 2", after-before)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "unmatched", "404")); got < 1 {
		t.Errorf("unmatched counter = %v, want >= 1", got)
	}
}
