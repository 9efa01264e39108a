package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"search-server/internal/app/controllers"
	"search-server/internal/app/models"
	"search-server/internal/app/services"
	"search-server/pkg/config"
	"search-server/pkg/util"
)

const defaultHeartbeat = 15 * time.Second

// Searcher 秘塔搜索的两种调用方式
type Searcher interface {
	Complete(ctx context.Context, query, model string) (*models.SearchResult, error)
	Stream(ctx context.Context, query, model string) (*services.MetasoStream, error)
}

type SearchController struct {
	searcher  Searcher
	limiter   services.Limiter
	heartbeat time.Duration
}

func NewSearchController(searcher Searcher, limiter services.Limiter) *SearchController {
	return &SearchController{searcher: searcher, limiter: limiter, heartbeat: defaultHeartbeat}
}

// prepare 限流并解析模型
func (c *SearchController) prepare(ctx context.Context, req models.SearchRequest) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Allow(ctx, config.ProviderMetaso); err != nil {
			return "", err
		}
	}
	return services.ResolveModel(req.Mode, req.Scholar)
}

// Search 阻塞等待完整结果
func (c *SearchController) Search(ctx *gin.Context) {
	var req models.SearchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controllers.ResponseError(ctx, services.ErrParamsInvalid("%v", err))
		return
	}
	model, err := c.prepare(ctx.Request.Context(), req)
	if err != nil {
		controllers.ResponseError(ctx, err)
		return
	}
	result, err := c.searcher.Complete(ctx.Request.Context(), req.Query, model)
	if err != nil {
		controllers.ResponseError(ctx, err)
		return
	}
	controllers.Success(ctx, result)
}

// Stream 以事件流转发正文增量, 结束时推送引用列表和 [DONE]
func (c *SearchController) Stream(ctx *gin.Context) {
	var req models.SearchRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		controllers.ResponseError(ctx, services.ErrParamsInvalid("%v", err))
		return
	}
	model, err := c.prepare(ctx.Request.Context(), req)
	if err != nil {
		controllers.ResponseError(ctx, err)
		return
	}

	reqCtx, cancel := context.WithCancel(ctx.Request.Context())
	defer cancel()
	stream, err := c.searcher.Stream(reqCtx, req.Query, model)
	if err != nil {
		controllers.ResponseError(ctx, err)
		return
	}
	defer stream.Close()
	entry := log.WithField("correlation_id", stream.ID())

	controllers.SSEHeaders(ctx)
	ctx.Status(http.StatusOK)
	w := ctx.Writer
	if err := util.WriteQuery(w, []string{req.Query}, stream.Meta.ConversationID); err != nil {
		entry.Warnf("write query event: %v", err)
		return
	}

	deltas, errc := stream.Deltas(reqCtx)
	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case delta, ok := <-deltas:
			if !ok {
				c.finish(w, stream, <-errc, entry)
				return
			}
			if err := util.WriteAppendText(w, delta); err != nil {
				entry.Warnf("client gone: %v", err)
				return
			}
		case <-ticker.C:
			if err := util.WriteHeartbeat(w); err != nil {
				entry.Warnf("client gone: %v", err)
				return
			}
		}
	}
}

func (c *SearchController) finish(w http.ResponseWriter, stream *services.MetasoStream, err error, entry *log.Entry) {
	if err != nil {
		info := services.RespInfoOf(err)
		entry.Errorf("search stream failed: %v", err)
		_ = util.WriteError(w, info.Code, info.Msg)
		util.WriteDone(w)
		return
	}
	result := stream.Result()
	if err := util.WriteSetReference(w, stream.ID(), models.ReferenceItems(result.References)); err != nil {
		entry.Warnf("write reference event: %v", err)
		return
	}
	util.WriteDone(w)
	entry.WithField("references", len(result.References)).Info("search stream done")
}
