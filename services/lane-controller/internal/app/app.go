package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	libdb "parkgate/libs/db"
	libredis "parkgate/libs/redis"
	"parkgate/services/lane-controller/internal/config"
	"parkgate/services/lane-controller/internal/detect"
	"parkgate/services/lane-controller/internal/fees"
	"parkgate/services/lane-controller/internal/flows"
	"parkgate/services/lane-controller/internal/gate"
	"parkgate/services/lane-controller/internal/models"
	"parkgate/services/lane-controller/internal/monitor"
	"parkgate/services/lane-controller/internal/store"
	"parkgate/services/lane-controller/internal/terminal"
)

// App wires all dependencies for the lane controller.
type App struct {
	httpServer *http.Server
	db         *sql.DB
	termConn   *terminal.LineConn
	gateSink   gate.Sink
	feed       *detect.Feed
	entry      *flows.EntryController
	exit       *flows.ExitController
	monitor    *monitor.Monitor
	logger     *zap.Logger
}

// New builds the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := libdb.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	txStore := store.NewPostgres(sqlDB)
	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := txStore.EnsureSchema(initCtx); err != nil {
		sqlDB.Close()
		return nil, err
	}

	var deduper detect.Deduper
	if cfg.Redis.Addr != "" {
		redisClient, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		deduper = detect.NewRedisDeduper(redisClient)
	} else {
		logger.Warn("no redis configured, detection debounce will not survive restarts")
		deduper = detect.NewMemoryDeduper()
	}

	validator, err := models.NewPlateValidator(cfg.Detection.PlatePattern)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	feed := detect.NewFeed(detect.Config{
		ConfidenceThreshold: cfg.Detection.ConfidenceThreshold,
		EntryDebounce:       cfg.EntryDebounce(),
		ExitDebounce:        cfg.ExitDebounce(),
	}, validator, deduper, logger)

	var gateSink gate.Sink
	if cfg.Gate.Addr != "" {
		serial, err := gate.DialSerial(cfg.Gate.Addr, cfg.GateHold(), logger)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		gateSink = serial
	} else {
		logger.Warn("no gate bridge configured, signals are log-only")
		gateSink = gate.NewLogSink(logger)
	}

	termConn, err := terminal.Dial(cfg.Terminal.Addr)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	collector := terminal.NewClient(termConn, cfg.CardWait(), cfg.AckTimeout(), logger)

	calc := fees.NewCalculator(cfg.Billing.RatePerUnit, cfg.BillingUnit())

	entry := flows.NewEntryController(txStore, gateSink, logger)
	exit := flows.NewExitController(txStore, gateSink, collector, calc, logger)
	mon := monitor.New(txStore, gateSink, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/ws/detections", feed.HandleDetections)
	mux.HandleFunc("/ws/crossings", feed.HandleCrossings)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		httpServer: httpServer,
		db:         sqlDB,
		termConn:   termConn,
		gateSink:   gateSink,
		feed:       feed,
		entry:      entry,
		exit:       exit,
		monitor:    mon,
		logger:     logger,
	}, nil
}

// Run starts the controllers and the feed HTTP server.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go a.entry.Run(ctx, a.feed.EntryDetections())
	go a.exit.Run(ctx, a.feed.ExitDetections())
	go a.monitor.Run(ctx, a.feed.Crossings())

	go func() {
		a.logger.Info("starting detection feed server", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Close releases resources.
func (a *App) Close() {
	if a.termConn != nil {
		if err := a.termConn.Close(); err != nil {
			a.logger.Warn("failed to close terminal connection", zap.Error(err))
		}
	}
	if serial, ok := a.gateSink.(*gate.SerialSink); ok {
		if err := serial.Close(); err != nil {
			a.logger.Warn("failed to close gate connection", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
