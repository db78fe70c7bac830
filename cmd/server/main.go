// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"later-go/internal/config"
	"later-go/internal/handler"
	"later-go/internal/middleware"
	"later-go/internal/pipeline"
	"later-go/internal/repository"
	"later-go/internal/service"
	"later-go/pkg/database"
	"later-go/pkg/embedding"
	"later-go/pkg/es"
	"later-go/pkg/kafka"
	"later-go/pkg/llm"
	"later-go/pkg/log"
	"later-go/pkg/scrape"
	"later-go/pkg/search"
	"later-go/pkg/storage"
	"later-go/pkg/token"
	"later-go/pkg/transcript"
	"later-go/pkg/vision"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、对象存储与向量索引
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch, cfg.Embedding.Dimensions); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	toolRepo := repository.NewToolRepository(database.DB)
	docRepo := repository.NewDocumentRepository(database.DB)
	versionRepo := repository.NewVersionRepository(database.DB)
	watchlistRepo := repository.NewWatchlistRepository(database.DB)

	// 5. 初始化外部服务客户端
	jwtManager := token.NewJWTManager(cfg.JWT.Secret)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	searchClient := search.NewClient(cfg.Search)
	scraper := scrape.New(cfg.Scrape)
	transcriptFetcher := transcript.NewFetcher()
	visionClient := vision.NewClient(cfg.Vision)

	// 6. 初始化研究流程编排器 (Orchestrator)
	orchestrator := pipeline.NewOrchestrator(
		llmClient,
		searchClient,
		scraper,
		transcriptFetcher,
		embeddingClient,
		toolRepo,
		docRepo,
		versionRepo,
		cfg.Elasticsearch,
	)

	// 7. 初始化 Service (依赖注入)
	retrievalService := service.NewRetrievalService(embeddingClient, docRepo, cfg.Elasticsearch)
	chatService := service.NewChatService(retrievalService, llmClient)
	ingestService := service.NewIngestService(orchestrator, visionClient, llmClient, cfg.MinIO)
	toolService := service.NewToolService(orchestrator, toolRepo, versionRepo, watchlistRepo, cfg.Elasticsearch)

	// 8. 启动后台 Kafka 消费者（刷新任务队列）
	go kafka.StartConsumer(cfg.Kafka, toolService)

	// 9. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())
	// 身份中间件是可选的：没有令牌的请求照常放行，只是拿不到 userID
	r.Use(middleware.Identity(jwtManager))

	// 10. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		// Ingest 路由组：提交 URL / 文本 / 截图，触发研究流程
		ingest := apiV1.Group("/ingest")
		{
			ingest.POST("", handler.NewIngestHandler(ingestService).Research)
			ingest.POST("/stream", handler.NewIngestHandler(ingestService).ResearchStream)
			ingest.POST("/image", handler.NewIngestHandler(ingestService).ResearchImage)
		}

		// Tool 路由组：事实表的查询与维护
		tools := apiV1.Group("/tools")
		{
			tools.GET("", handler.NewToolHandler(toolService).List)
			tools.POST("/refresh-watched", handler.NewToolHandler(toolService).RefreshWatched)
			tools.GET("/:id", handler.NewToolHandler(toolService).Get)
			tools.POST("/:id/watch", handler.NewToolHandler(toolService).ToggleWatch)
			tools.POST("/:id/refresh", handler.NewToolHandler(toolService).Refresh)
			tools.DELETE("/:id/latest-version", handler.NewToolHandler(toolService).DeleteLatestVersion)
		}

		// Chat 路由：基于检索的问答
		apiV1.POST("/chat", handler.NewChatHandler(chatService, jwtManager).Ask)
	}
	// Chat 路由 (WebSocket)，令牌走路径参数
	r.GET("/chat/:token", handler.NewChatHandler(chatService, jwtManager).HandleWS)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// Kafka 消费者随进程退出自然结束，无需在此显式关闭。
	log.Info("服务已优雅关闭")
}
