package main

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"signal-deck/internal/advisor"
	"signal-deck/internal/config"
	"signal-deck/internal/demo"
	"signal-deck/internal/feed"
	"signal-deck/internal/tui"
	"signal-deck/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc        = godotenv.Load
	loadConfigFunc     = config.Load
	initTracerFunc     = tracing.InitTracer
	buildFeedFunc      = feed.Build
	newSSHServerFunc   = newSSHServer
	startSSHServerFunc = func(s *ssh.Server) error { return s.ListenAndServe() }
	shutdownSSHFunc    = func(s *ssh.Server, ctx context.Context) error { return s.Shutdown(ctx) }
	setupSignalNotify  = ossignal.Notify
	waitForSignalFunc  = func(quit <-chan os.Signal) { <-quit }
)

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

	adviceFeed, err := buildFeedFunc(ctx, cfg, tracer)
	if err != nil {
		log.Fatal("failed to build advice feed", "err", err)
	}
	defer adviceFeed.Close()

	base := tui.Services{
		Feed: adviceFeed.Query,
		Demo: demo.NewGenerator(nil, nil),
	}
	if adv := newAdvisor(cfg, tracer, adviceFeed); adv != nil {
		base.Advisor = adv
	}

	s, err := newSSHServerFunc(cfg, base)
	if err != nil {
		log.Fatal("could not create ssh server", "err", err)
	}

	go func() {
		log.Info("ssh server listening", "addr", s.Addr)
		if err := startSSHServerFunc(s); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Error("ssh server failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("stopping ssh server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := shutdownSSHFunc(s, shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		log.Error("could not stop ssh server", "err", err)
	}
}

func newSSHServer(cfg *config.Config, base tui.Services) (*ssh.Server, error) {
	return wish.NewServer(
		wish.WithAddress(net.JoinHostPort(cfg.SSHBind, fmt.Sprintf("%d", cfg.SSHPort))),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithMiddleware(
			bm.Middleware(teaHandler(base)),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
}

// teaHandler starts one TUI per session; the model's subscription ends with the session.
func teaHandler(base tui.Services) bm.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		svc := base
		svc.Username = s.User()
		svc.UserID = userID(s.User())

		m := tui.NewAppModel(svc)
		if pty, _, ok := s.Pty(); ok {
			m.SetSize(pty.Window.Width, pty.Window.Height)
		}
		go func() {
			<-s.Context().Done()
			m.Close()
		}()
		return m, []tea.ProgramOption{tea.WithAltScreen()}
	}
}

// userID derives a stable positive id so advisor history survives reconnects.
func userID(name string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum32())
}

func newAdvisor(cfg *config.Config, tracer trace.Tracer, f *feed.Feed) *advisor.AdvisorService {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}
	store := advisor.NewMemoryStore(cfg.AdvisorMaxHistory)
	return advisor.NewAdvisorService(tracer, advisor.NewOpenAIClient(cfg.OpenAIAPIKey), f.Query, store, cfg.OpenAIModel, cfg.AdvisorMaxHistory)
}
