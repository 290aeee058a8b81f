package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/posecoach/internal/adapters/enrich"
	"github.com/okian/posecoach/internal/adapters/http/api"
	"github.com/okian/posecoach/internal/adapters/http/live"
	"github.com/okian/posecoach/internal/adapters/http/site"
	"github.com/okian/posecoach/internal/adapters/http/swagger"
	app "github.com/okian/posecoach/internal/app"
	"github.com/okian/posecoach/internal/config"
	"github.com/okian/posecoach/internal/sampler"
	"github.com/okian/posecoach/pkg/logger"
	"github.com/okian/posecoach/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 30 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if loaded, err := config.LoadDotEnv(); err != nil {
		log.Warn(ctx, "dotenv ignored", logger.Error(err))
	} else if len(loaded) > 0 {
		log.Info(ctx, "loaded dotenv", logger.Any("files", loaded))
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(cfg, log)
	if err != nil {
		os.Stderr.WriteString("failed to build service: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// newService maps configuration onto the analysis service.
func newService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	mode, err := sampler.ParseMode(cfg.SamplingMode)
	if err != nil {
		return nil, err
	}
	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithThresholds(cfg.Thresholds()),
		app.WithSlopes(cfg.Slopes()),
		app.WithSampleRate(cfg.SampleRate),
		app.WithMinSeconds(cfg.MinSeconds),
		app.WithDebounce(cfg.DebounceSeconds),
		app.WithTopK(cfg.TopK),
		app.WithConfidence(cfg.HandConfidence, cfg.LandmarkConfidence),
		app.WithSampling(
			sampler.WithMinSamples(cfg.MinSamples),
			sampler.WithSeekMargin(cfg.SeekMargin),
			sampler.WithFrameTimeout(cfg.FrameTimeout()),
			sampler.WithMode(mode),
		),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithJobRetention(cfg.JobRetention),
	}
	if cfg.EnrichEnabled() {
		e, err := newEnricher(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("enricher: %w", err)
		}
		opts = append(opts, app.WithEnricher(e, cfg.EnrichTimeout()))
	}
	return app.New(opts...), nil
}

func newEnricher(cfg *config.Config, log logger.Logger) (*enrich.OpenAI, error) {
	return enrich.NewOpenAI(
		enrich.WithAPIKey(cfg.EnrichAPIKey),
		enrich.WithBaseURL(cfg.EnrichBaseURL),
		enrich.WithModel(cfg.EnrichModel),
		enrich.WithMaxTokens(cfg.EnrichMaxTokens),
		enrich.WithTimeout(cfg.EnrichTimeout()),
		enrich.WithTranscriptBudget(cfg.EnrichTranscriptBudget),
		enrich.WithLogger(log.Named("enrich")),
	)
}

// newMux registers every route. /live bypasses the metrics middleware
// because the websocket upgrade needs the raw ResponseWriter.
func newMux(ctx context.Context, svc *app.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	mux.Handle("/live", live.NewHandler(live.ServiceStarter{Svc: svc}, live.WithMaxSessions(cfg.LiveMaxSessions)))
	return mux
}

func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		metrics.RecordSystemGCPauseTime(float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond)
	}
}
