package v1

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"search-server/internal/app/controllers"
	"search-server/internal/app/models"
	"search-server/internal/app/services"
)

type ToolController struct {
	toolbox *services.Toolbox
}

func NewToolController(toolbox *services.Toolbox) *ToolController {
	return &ToolController{toolbox: toolbox}
}

// ListTools 当前搜索服务提供的工具
func (c *ToolController) ListTools(ctx *gin.Context) {
	controllers.Success(ctx, gin.H{
		"provider": c.toolbox.Provider(),
		"tools":    c.toolbox.Tools(),
	})
}

// CallTool 调用工具, 结果以文本内容返回
func (c *ToolController) CallTool(ctx *gin.Context) {
	var req models.ToolCallRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controllers.ResponseError(ctx, services.ErrParamsInvalid("%v", err))
		return
	}
	if req.Arguments == nil {
		req.Arguments = map[string]any{}
	}

	result, err := c.toolbox.Call(ctx.Request.Context(), req.Name, req.Arguments)
	if err != nil {
		log.WithField("tool", req.Name).Infof("tool call rejected: %v", err)
		controllers.ResponseError(ctx, err)
		return
	}
	controllers.Success(ctx, gin.H{"content": []models.ToolResult{result}})
}
