package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"signal-deck/internal/advisor"
	"signal-deck/internal/anomaly"
	"signal-deck/internal/bot"
	"signal-deck/internal/chart"
	"signal-deck/internal/config"
	"signal-deck/internal/demo"
	"signal-deck/internal/feed"
	"signal-deck/internal/handler"
	"signal-deck/internal/job"
	"signal-deck/internal/metrics"
	"signal-deck/internal/stream"
	"signal-deck/pkg/tracing"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "signal-deck/docs"
)

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	initTracerFunc       = tracing.InitTracer
	buildFeedFunc        = feed.Build
	newHubFunc           = stream.NewHub
	startHubFunc         = func(h *stream.Hub, f *feed.Feed, ctx context.Context) { go h.Run(ctx); go h.Follow(ctx, f.Query) }
	newChartRendererFunc = chart.NewRenderer
	newAdvisorFunc       = newAdvisor
	startTelegramBotFunc = bot.StartTelegramBot
	newWatcherFunc       = job.NewAdviceWatcher
	startWatcherFunc     = func(w *job.AdviceWatcher, ctx context.Context) { go w.Start(ctx) }
	newHandlerFunc       = handler.New
	newRouterFunc        = gin.Default
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Signal Deck API
// @version         1.0
// @description     Buy/hold/sell advice for tracked crypto tokens, with illustrative sentiment insights.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatal("failed to initialize tracer", "err", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("error shutting down tracer provider", "err", err)
		}
	}()

	metrics.Init()

	adviceFeed, err := buildFeedFunc(ctx, cfg, tracer)
	if err != nil {
		log.Fatal("failed to build advice feed", "err", err)
	}
	defer adviceFeed.Close()

	// The hub subscription keeps the query polling for the process lifetime.
	hub := newHubFunc()
	startHubFunc(hub, adviceFeed, ctx)

	gen := demo.NewGenerator(nil, nil)
	renderer := newChartRendererFunc()
	whales := anomaly.NewWhaleScorer(cfg.WhaleAnomalyThreshold, anomaly.TrainOptions{
		NumTrees:   cfg.WhaleIForestTrees,
		SampleSize: cfg.WhaleIForestSample,
	})

	deps := bot.Deps{Feed: adviceFeed.Query, Demo: gen, Renderer: renderer}
	if adv := newAdvisorFunc(cfg, tracer, adviceFeed); adv != nil {
		deps.Advisor = adv
	}
	alerts := startTelegramBotFunc(cfg.TelegramBotToken, deps)
	if alerts != nil {
		watcher := newWatcherFunc(tracer, adviceFeed.Query, alerts)
		startWatcherFunc(watcher, ctx)
	}

	h := newHandlerFunc(tracer, adviceFeed.Query, adviceFeed.Catalog, gen, renderer, whales, hub)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Cache-Control"},
		MaxAge:          12 * time.Hour,
	}))

	h.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		log.Info("http server listening", "addr", srv.Addr, "advice_api", cfg.AdviceBaseURL)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", "err", err)
	}

	log.Info("server exiting")
}

// newAdvisor returns nil when no OpenAI key is configured.
func newAdvisor(cfg *config.Config, tracer trace.Tracer, f *feed.Feed) *advisor.AdvisorService {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}
	llm := advisor.NewOpenAIClient(cfg.OpenAIAPIKey)
	store := advisor.NewMemoryStore(cfg.AdvisorMaxHistory)
	return advisor.NewAdvisorService(tracer, llm, f.Query, store, cfg.OpenAIModel, cfg.AdvisorMaxHistory)
}
