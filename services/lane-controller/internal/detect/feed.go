package detect

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"parkgate/services/lane-controller/internal/models"
)

const (
	readLimit    = 64 * 1024
	readDeadline = 60 * time.Second
)

// Config tunes how raw camera events are filtered before a controller ever
// sees them.
type Config struct {
	ConfidenceThreshold float64
	EntryDebounce       time.Duration
	ExitDebounce        time.Duration
}

// Feed ingests plate detections and gate-crossing signals pushed by the
// camera and sensor agents over WebSocket, filters them, and hands the
// survivors to the flow controllers over channels. The detection channels
// hold a single event: a detection arriving while the previous vehicle is
// still being processed is dropped, which keeps one handshake at a time
// against the card reader.
type Feed struct {
	cfg       Config
	validator *models.PlateValidator
	deduper   Deduper
	logger    *zap.Logger
	upgrader  websocket.Upgrader

	entry     chan models.Detection
	exit      chan models.Detection
	crossings chan models.GateCrossing
}

// NewFeed builds feed.
func NewFeed(cfg Config, validator *models.PlateValidator, deduper Deduper, logger *zap.Logger) *Feed {
	return &Feed{
		cfg:       cfg,
		validator: validator,
		deduper:   deduper,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		entry:     make(chan models.Detection, 1),
		exit:      make(chan models.Detection, 1),
		crossings: make(chan models.GateCrossing, 64),
	}
}

// EntryDetections returns the entry controller's event source.
func (f *Feed) EntryDetections() <-chan models.Detection {
	return f.entry
}

// ExitDetections returns the exit controller's event source.
func (f *Feed) ExitDetections() <-chan models.Detection {
	return f.exit
}

// Crossings returns the monitor's event source.
func (f *Feed) Crossings() <-chan models.GateCrossing {
	return f.crossings
}

type detectionMessage struct {
	Plate      string    `json:"plate"`
	Confidence float64   `json:"confidence"`
	DetectedAt time.Time `json:"detected_at"`
}

type crossingMessage struct {
	Plate     string    `json:"plate"`
	CrossedAt time.Time `json:"crossed_at"`
}

// HandleDetections is the HTTP handler for /ws/detections?lane=entry|exit.
func (f *Feed) HandleDetections(w http.ResponseWriter, r *http.Request) {
	lane := models.Lane(r.URL.Query().Get("lane"))
	if lane != models.LaneEntry && lane != models.LaneExit {
		http.Error(w, "lane must be entry or exit", http.StatusBadRequest)
		return
	}

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	f.logger.Info("camera agent connected", zap.String("lane", string(lane)))

	// The request context dies when this handler returns; the hijacked
	// connection outlives it.
	go f.readDetections(context.Background(), conn, lane)
}

// HandleCrossings is the HTTP handler for /ws/crossings.
func (f *Feed) HandleCrossings(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	f.logger.Info("gate sensor connected")

	go f.readCrossings(context.Background(), conn)
}

func (f *Feed) readDetections(ctx context.Context, conn *websocket.Conn, lane models.Lane) {
	defer conn.Close()
	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		var msg detectionMessage
		if err := conn.ReadJSON(&msg); err != nil {
			f.logger.Info("camera agent disconnected", zap.String("lane", string(lane)), zap.Error(err))
			return
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		f.Ingest(ctx, lane, msg.Plate, msg.Confidence, msg.DetectedAt)
	}
}

func (f *Feed) readCrossings(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		var msg crossingMessage
		if err := conn.ReadJSON(&msg); err != nil {
			f.logger.Info("gate sensor disconnected", zap.Error(err))
			return
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		f.IngestCrossing(ctx, msg.Plate, msg.CrossedAt)
	}
}

// Ingest filters one raw detection and, if it survives, offers it to the
// lane's controller.
func (f *Feed) Ingest(ctx context.Context, lane models.Lane, rawPlate string, confidence float64, detectedAt time.Time) {
	plate := models.NormalizePlate(rawPlate)
	if !f.validator.Valid(plate) {
		f.logger.Debug("discarding unreadable plate", zap.String("raw", rawPlate), zap.String("lane", string(lane)))
		return
	}
	if confidence < f.cfg.ConfidenceThreshold {
		f.logger.Debug("discarding low confidence detection",
			zap.String("plate", plate),
			zap.Float64("confidence", confidence),
		)
		return
	}

	window := f.cfg.ExitDebounce
	if lane == models.LaneEntry {
		window = f.cfg.EntryDebounce
	}
	seen, err := f.deduper.Seen(ctx, string(lane), plate, window)
	if err != nil {
		f.logger.Warn("dedup check failed, passing detection through", zap.Error(err))
	} else if seen {
		f.logger.Debug("suppressing repeat detection", zap.String("plate", plate), zap.String("lane", string(lane)))
		return
	}

	if detectedAt.IsZero() {
		detectedAt = time.Now().UTC()
	}
	event := models.Detection{
		ID:         uuid.NewString(),
		Lane:       lane,
		Plate:      plate,
		Confidence: confidence,
		DetectedAt: detectedAt,
	}

	target := f.exit
	if lane == models.LaneEntry {
		target = f.entry
	}
	select {
	case target <- event:
	default:
		f.logger.Warn("controller busy, dropping detection",
			zap.String("plate", plate),
			zap.String("lane", string(lane)),
		)
	}
}

// IngestCrossing normalizes and queues one gate-crossing signal.
func (f *Feed) IngestCrossing(ctx context.Context, rawPlate string, crossedAt time.Time) {
	plate := models.NormalizePlate(rawPlate)
	if plate == "" {
		return
	}
	if crossedAt.IsZero() {
		crossedAt = time.Now().UTC()
	}
	select {
	case f.crossings <- models.GateCrossing{Plate: plate, CrossedAt: crossedAt}:
	default:
		f.logger.Warn("crossing buffer full, dropping signal", zap.String("plate", plate))
	}
}
