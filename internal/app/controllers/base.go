package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"search-server/internal/app/models"
	"search-server/internal/app/services"
	"search-server/internal/pkg/code"
)

func Response(c *gin.Context, code int, message string, data interface{}) {
	if nil == data {
		data = struct {
		}{}
	}
	resp := &models.RespValue{
		Code: code,
		Msg:  message,
		Data: data,
	}
	c.JSON(http.StatusOK, resp)
}

func ResponseWithErr(c *gin.Context, code int, message string, err string, data interface{}) {
	if nil == data {
		data = struct {
		}{}
	}
	resp := &models.RespValue{
		Code: code,
		Msg:  message,
		Err:  err,
		Data: data,
	}
	c.JSON(http.StatusOK, resp)
}

// ResponseError 按业务错误的返回码应答
func ResponseError(c *gin.Context, err error) {
	info := services.RespInfoOf(err)
	ResponseWithErr(c, info.Code, info.Msg, err.Error(), nil)
}

// Success 成功应答
func Success(c *gin.Context, data interface{}) {
	Response(c, code.Success, code.MsgSuccess, data)
}

// SSEHeaders 设置事件流响应头
func SSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

func Health(c *gin.Context) {
	Success(c, "")
}
