// Package response 提供统一的 HTTP 响应封装
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body 统一响应结构
type Body struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success 返回 200 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{Code: 0, Message: "ok", Data: data})
}

// Created 返回 201 创建成功响应
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Body{Code: 0, Message: "ok", Data: data})
}

// Error 返回 500 错误响应
func Error(c *gin.Context, err error) {
	ErrorWithStatus(c, http.StatusInternalServerError, err)
}

// ErrorWithStatus 返回指定状态码的错误响应
func ErrorWithStatus(c *gin.Context, status int, err error) {
	c.JSON(status, Body{Code: status, Message: err.Error()})
}
