package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一API响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Success bool        `json:"success"`
}

// 未指定消息时按状态码给出的提示
var defaultMessages = map[int]string{
	http.StatusBadRequest:          "请求参数错误",
	http.StatusUnauthorized:        "未登录",
	http.StatusNotFound:            "资源不存在",
	http.StatusInternalServerError: "服务器内部错误",
	http.StatusServiceUnavailable:  "服务暂不可用",
}

// Success 200 + data
func Success(c *gin.Context, data interface{}) {
	SuccessWithMessage(c, "success", data)
}

// SuccessWithMessage 200 + 自定义消息
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: message, Data: data, Success: true})
}

// Error 写出错误响应并中止后续处理，message 为空时使用默认提示
func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = defaultMessages[code]
	}
	if message == "" {
		message = http.StatusText(code)
	}
	c.AbortWithStatusJSON(code, Response{Code: code, Message: message})
}

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalServerError 500
func InternalServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// ServiceUnavailable 503，下游存储不可用
func ServiceUnavailable(c *gin.Context, message string) {
	Error(c, http.StatusServiceUnavailable, message)
}
