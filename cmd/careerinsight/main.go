package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"

	"career-insight-go/internal/api/handler"
	"career-insight-go/internal/api/router"
	"career-insight-go/internal/cluster"
	"career-insight-go/internal/config"
	"career-insight-go/internal/gap"
	appCoreLogger "career-insight-go/internal/logger"
	"career-insight-go/internal/matcher"
	"career-insight-go/internal/parser"
	"career-insight-go/internal/processor"
	"career-insight-go/internal/storage"
	"career-insight-go/pkg/agent"
	"career-insight-go/pkg/ratelimit"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 语料库与需求表是启动屏障：缺失或损坏直接拒绝启动
	postings, err := storage.LoadCorpus(cfg.Corpus.Path)
	if err != nil {
		glog.Fatalf("加载职位语料库失败: %v", err)
	}
	index, err := matcher.NewEmbeddingIndex(postings, cfg.Corpus.Dimension)
	if err != nil {
		glog.Fatalf("构建向量索引失败: %v", err)
	}
	glog.Infof("职位语料库加载成功，共 %d 条，维度 %d", index.Size(), index.Dimension())

	categories, err := storage.LoadCategoryTable(cfg.SkillTable.Path)
	if err != nil {
		glog.Fatalf("加载技能需求排名表失败: %v", err)
	}
	glog.Infof("技能需求排名表加载成功，共 %d 个类别", len(categories))

	aliyunEmbedder, err := parser.NewAliyunEmbedder(cfg.Aliyun.APIKey, cfg.Aliyun.Embedding)
	if err != nil {
		glog.Fatalf("初始化阿里云Embedder失败: %v", err)
	}
	glog.Info("阿里云Embedder初始化成功")

	pdfExtractor, err := parser.NewEinoPDFTextExtractor(ctx,
		parser.WithEinoLogger(log.New(os.Stderr, "[EinoPDFMain] ", log.LstdFlags)))
	if err != nil {
		glog.Fatalf("创建PDF提取器失败: %v", err)
	}
	glog.Info("使用Eino PDF解析器")

	structurerModel := buildTaskModel(cfg, "structure", cfg.Structurer.Temperature, cfg.Structurer.MaxTokens)
	categorizeModel := buildTaskModel(cfg, "categorize", 0, 0)
	clusterLabelModel := buildTaskModel(cfg, "cluster_label", 0, 0)

	var componentLogger *log.Logger
	if cfg.Logger.Level == "debug" {
		componentLogger = log.New(os.Stderr, "[InsightMain] ", log.LstdFlags|log.Lshortfile)
	} else {
		componentLogger = log.New(io.Discard, "", 0)
	}

	structurerPolicy := ratelimit.RetryPolicy{
		MaxRetries: cfg.Structurer.MaxRetries,
		BaseDelay:  time.Duration(cfg.Structurer.BaseDelaySeconds * float64(time.Second)),
		MaxDelay:   time.Duration(cfg.Structurer.MaxDelaySeconds * float64(time.Second)),
		Classify:   ratelimit.RateLimitClassifier,
	}
	profileStructurer := parser.NewProfileStructurer(structurerModel, componentLogger,
		parser.WithStructurerRetryPolicy(structurerPolicy))
	glog.Info("画像结构化器初始化成功")

	processorOpts := []processor.InsightProcessorOption{
		processor.WithDefaultTopK(cfg.Corpus.DefaultTopK),
	}
	// 画像缓存是可选依赖：Redis不可用时降级为直连结构化
	profileCache, err := storage.NewProfileCache(ctx, cfg.Redis)
	if err != nil {
		glog.Warnf("画像缓存不可用，已降级: %v", err)
	} else {
		defer profileCache.Close()
		processorOpts = append(processorOpts, processor.WithProfileCache(profileCache))
		glog.Info("画像缓存初始化成功")
	}

	insightProcessor := processor.NewInsightProcessor(
		pdfExtractor, profileStructurer, aliyunEmbedder, index, processorOpts...)
	glog.Info("匹配流水线初始化成功")

	analyzer := gap.NewAnalyzer(categorizeModel, categories, cfg.SkillTable.TopN, componentLogger)
	labeler := cluster.NewLabeler(aliyunEmbedder, clusterLabelModel, componentLogger)

	insightHandler := handler.NewInsightHandler(cfg, insightProcessor, analyzer, labeler)

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, insightHandler)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// buildTaskModel 按任务名构造带限流的聊天模型
func buildTaskModel(cfg *config.Config, taskName string, temperature float64, maxTokens int) model.ToolCallingChatModel {
	modelName := cfg.GetModelForTask(taskName)
	if taskName == "structure" && cfg.Structurer.ModelName != "" {
		modelName = cfg.Structurer.ModelName
	}

	var opts []agent.Option
	if temperature > 0 {
		opts = append(opts, agent.WithTemperature(temperature))
	}
	if maxTokens > 0 {
		opts = append(opts, agent.WithMaxTokens(maxTokens))
	}
	opts = append(opts, agent.WithTimeout(config.GetDuration(cfg.Structurer.CallTimeout, 60*time.Second)))

	qwenModel, err := agent.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, modelName, cfg.Aliyun.APIURL, opts...)
	if err != nil {
		glog.Fatalf("初始化聊天模型失败 (任务:%s): %v", taskName, err)
	}

	return ratelimit.NewLLMWithRateLimit(qwenModel, modelName, cfg.ModelQPMLimits,
		cfg.Structurer.QPM, ratelimit.DefaultRetryPolicy())
}
