package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"parkgate/services/dashboard/internal/models"
)

const maxRecentLimit = 200

// LogsReader is the read-only view of the transaction log the handlers
// need. Satisfied by *repository.LogsRepository.
type LogsReader interface {
	ListRecent(ctx context.Context, limit int) ([]models.VehicleLog, error)
	DailyStats(ctx context.Context, day time.Time) (*models.DailyStats, error)
}

// NewRecentLogsHandler returns GET /api/v1/logs/recent handler.
func NewRecentLogsHandler(logs LogsReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 10
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = parsed
		}
		if limit > maxRecentLimit {
			limit = maxRecentLimit
		}

		records, err := logs.ListRecent(r.Context(), limit)
		if err != nil {
			logger.Error("recent logs query failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch logs")
			return
		}
		if records == nil {
			records = []models.VehicleLog{}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"logs": records})
	}
}

// NewDailyStatsHandler returns GET /api/v1/stats/daily handler.
func NewDailyStatsHandler(logs LogsReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := logs.DailyStats(r.Context(), time.Now().UTC())
		if err != nil {
			logger.Error("daily stats query failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch stats")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
	}
}

// NewHealthHandler returns GET /health handler.
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
