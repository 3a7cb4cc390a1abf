package router

import (
	"context"
	"errors"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"career-insight-go/internal/api/handler"
	"career-insight-go/internal/processor"
)

// skillsRequest 技能类接口的统一请求体
type skillsRequest struct {
	Skills []string `json:"skills"`
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, insightHandler *handler.InsightHandler) {
	api := h.Group("/api/v1")

	api.POST("/resume/match", func(c context.Context, ctx *app.RequestContext) {
		// 获取上传的文件
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
			return
		}

		// 可选的检索条数，缺省走配置
		topK := 0
		if raw := ctx.PostForm("top_k"); raw != "" {
			if parsed, convErr := strconv.Atoi(raw); convErr == nil {
				topK = parsed
			}
		}

		// 打开文件
		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
			return
		}
		defer file.Close()

		resp, err := insightHandler.HandleResumeMatch(c, file, fileHeader.Filename, topK)
		if err != nil {
			ctx.JSON(matchErrorStatus(err), utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/skills/analyze", func(c context.Context, ctx *app.RequestContext) {
		var req skillsRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}
		if len(req.Skills) == 0 {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "技能列表不能为空"})
			return
		}

		resp, err := insightHandler.HandleSkillsAnalyze(c, req.Skills)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/skills/cluster", func(c context.Context, ctx *app.RequestContext) {
		var req skillsRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}

		resp, err := insightHandler.HandleSkillsCluster(c, req.Skills)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/market/insights", func(c context.Context, ctx *app.RequestContext) {
		resp, err := insightHandler.HandleMarketInsights(c)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	})

	// 添加健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}

// matchErrorStatus 把流水线错误映射为HTTP状态码
func matchErrorStatus(err error) int {
	if status, ok := handler.StructuringErrorStatus(err); ok {
		return status
	}
	if errors.Is(err, processor.ErrExtractTextFailed) {
		return consts.StatusBadRequest
	}
	return consts.StatusInternalServerError
}
