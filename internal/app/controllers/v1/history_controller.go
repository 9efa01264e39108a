package v1

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"search-server/internal/app/controllers"
	"search-server/internal/app/models"
	"search-server/internal/app/services"
)

var errHistoryDisabled = errors.New("history disabled: mysql not configured")

type HistoryController struct {
	service services.ISearchRecord
}

// NewHistoryController service 为 nil 时接口返回请求失败
func NewHistoryController(service services.ISearchRecord) *HistoryController {
	return &HistoryController{service: service}
}

// ListHistory 分页列出搜索记录
func (c *HistoryController) ListHistory(ctx *gin.Context) {
	if c.service == nil {
		controllers.ResponseError(ctx, services.ErrRequestFailed(errHistoryDisabled))
		return
	}
	var query models.HistoryQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		controllers.ResponseError(ctx, services.ErrParamsInvalid("%v", err))
		return
	}
	records, err := c.service.ListSearchRecords(query.Limit, query.Offset)
	if err != nil {
		controllers.ResponseError(ctx, services.ErrRequestFailed(err))
		return
	}
	controllers.Success(ctx, gin.H{"records": records})
}

// GetHistory 按关联ID取一条记录
func (c *HistoryController) GetHistory(ctx *gin.Context) {
	if c.service == nil {
		controllers.ResponseError(ctx, services.ErrRequestFailed(errHistoryDisabled))
		return
	}
	id := ctx.Param("id")
	record, err := c.service.GetSearchRecord(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		controllers.ResponseError(ctx, services.ErrParamsInvalid("记录不存在: %s", id))
		return
	}
	if err != nil {
		controllers.ResponseError(ctx, services.ErrRequestFailed(fmt.Errorf("get record %s: %w", id, err)))
		return
	}
	controllers.Success(ctx, record)
}
