package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respondWith(t *testing.T, write func(c *gin.Context)) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	write(c)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestSuccess(t *testing.T) {
	w, resp := respondWith(t, func(c *gin.Context) { Success(c, gin.H{"id": 1}) })

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "success", resp.Message)
	assert.Equal(t, map[string]interface{}{"id": float64(1)}, resp.Data)
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name    string
		write   func(c *gin.Context)
		code    int
		message string
	}{
		{"bad request keeps message", func(c *gin.Context) { BadRequest(c, "limit 必须是整数") }, http.StatusBadRequest, "limit 必须是整数"},
		{"unauthorized default", func(c *gin.Context) { Unauthorized(c, "") }, http.StatusUnauthorized, "未登录"},
		{"not found default", func(c *gin.Context) { NotFound(c, "") }, http.StatusNotFound, "资源不存在"},
		{"internal default", func(c *gin.Context) { InternalServerError(c, "") }, http.StatusInternalServerError, "服务器内部错误"},
		{"unavailable default", func(c *gin.Context) { ServiceUnavailable(c, "") }, http.StatusServiceUnavailable, "服务暂不可用"},
		{"unknown status falls back to status text", func(c *gin.Context) { Error(c, http.StatusConflict, "") }, http.StatusConflict, "Conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var aborted bool
			w, resp := respondWith(t, func(c *gin.Context) {
				tt.write(c)
				aborted = c.IsAborted()
			})

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.message, resp.Message)
			assert.False(t, resp.Success)
			assert.Nil(t, resp.Data)
			assert.True(t, aborted)
		})
	}
}
