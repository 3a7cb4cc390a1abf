package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"career-insight-go/internal/config"
	appCoreLogger "career-insight-go/internal/logger"
	"career-insight-go/internal/parser"
	"career-insight-go/pkg/agent"
	"career-insight-go/pkg/ratelimit"

	"github.com/cloudwego/eino/components/model"
)

// 命令行参数定义
var (
	configPath = flag.String("c", "", "配置文件路径")
	inputPath  = flag.String("in", "", "原始职位CSV路径 (必填，需含 title/description/job_url 列)")
	outputPath = flag.String("out", "", "富集后语料库CSV输出路径，缺省取配置 enricher.output_path")
	tablePath  = flag.String("table", "", "技能需求排名表CSV输出路径，缺省取配置 skill_table.path")
	workers    = flag.Int("workers", 0, "并发结构化调用数，缺省取配置 enricher.workers")
	command    = flag.String("cmd", "enrich", "执行的命令: enrich=富集语料库, skill-table=生成技能需求排名表")
)

func main() {
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("错误: 必须通过 -in 指定原始职位CSV路径")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	switch *command {
	case "enrich":
		handleEnrichCommand(cfg)
	case "skill-table":
		handleSkillTableCommand(cfg)
	default:
		fmt.Printf("错误: 未知命令 '%s'。支持的命令: enrich, skill-table\n", *command)
		flag.Usage()
		os.Exit(1)
	}
}

// newTaskModel 按任务名构造带限流的聊天模型
func newTaskModel(cfg *config.Config, taskName string) model.ToolCallingChatModel {
	modelName := cfg.GetModelForTask(taskName)
	qwenModel, err := agent.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, modelName, cfg.Aliyun.APIURL,
		agent.WithTimeout(config.GetDuration(cfg.Structurer.CallTimeout, 60*time.Second)))
	if err != nil {
		log.Fatalf("初始化聊天模型失败 (任务:%s): %v", taskName, err)
	}
	return ratelimit.NewLLMWithRateLimit(qwenModel, modelName, cfg.ModelQPMLimits,
		cfg.Structurer.QPM, ratelimit.DefaultRetryPolicy())
}

// newStructurer 构造画像结构化器
func newStructurer(cfg *config.Config) *parser.ProfileStructurer {
	var componentLogger *log.Logger
	if cfg.Logger.Level == "debug" {
		componentLogger = log.New(os.Stderr, "[Enricher] ", log.LstdFlags)
	} else {
		componentLogger = log.New(io.Discard, "", 0)
	}
	return parser.NewProfileStructurer(newTaskModel(cfg, "structure"), componentLogger)
}
