package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newBodyLimitRouter(maxBytes int64) *gin.Engine {
	router := gin.New()
	router.Use(BodyLimit(maxBytes))
	router.POST("/receive", func(c *gin.Context) {
		buf := make([]byte, 4096)
		if _, err := c.Request.Body.Read(buf); err != nil && err.Error() != "EOF" {
			c.String(http.StatusBadRequest, "body too large")
			return
		}
		c.String(http.StatusOK, "ok")
	})
	router.GET("/orders", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestBodyLimit(t *testing.T) {
	t.Run("accepts a body within the limit", func(t *testing.T) {
		router := newBodyLimitRouter(1024)

		req := httptest.NewRequest("POST", "/receive", strings.NewReader(`{"lines":[]}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects an oversized declared length", func(t *testing.T) {
		router := newBodyLimitRouter(64)

		req := httptest.NewRequest("POST", "/receive", strings.NewReader(strings.Repeat("x", 256)))
		req.ContentLength = 256
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")
		assert.Contains(t, w.Body.String(), `"success":false`)
	})

	t.Run("caps chunked bodies without a declared length", func(t *testing.T) {
		router := newBodyLimitRouter(64)

		req := httptest.NewRequest("POST", "/receive", strings.NewReader(strings.Repeat("x", 256)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("leaves bodyless requests alone", func(t *testing.T) {
		router := newBodyLimitRouter(16)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/orders", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
