package detect

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"parkgate/services/lane-controller/internal/models"
)

func newTestFeed(t *testing.T) *Feed {
	t.Helper()
	validator, err := models.NewPlateValidator("")
	if err != nil {
		t.Fatalf("compile plate pattern: %v", err)
	}
	cfg := Config{
		ConfidenceThreshold: 0.80,
		EntryDebounce:       5 * time.Minute,
		ExitDebounce:        10 * time.Second,
	}
	return NewFeed(cfg, validator, NewMemoryDeduper(), zap.NewNop())
}

func TestIngestRoutesByLane(t *testing.T) {
	ctx := context.Background()
	feed := newTestFeed(t)
	at := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	feed.Ingest(ctx, models.LaneEntry, "RAB123C", 0.95, at)
	feed.Ingest(ctx, models.LaneExit, "RAZ999Z", 0.95, at)

	select {
	case event := <-feed.EntryDetections():
		if event.Plate != "RAB123C" || event.Lane != models.LaneEntry {
			t.Fatalf("unexpected entry event %+v", event)
		}
		if event.ID == "" {
			t.Fatalf("expected event id to be assigned")
		}
	default:
		t.Fatalf("expected an entry detection")
	}

	select {
	case event := <-feed.ExitDetections():
		if event.Plate != "RAZ999Z" || event.Lane != models.LaneExit {
			t.Fatalf("unexpected exit event %+v", event)
		}
	default:
		t.Fatalf("expected an exit detection")
	}
}

func TestIngestNormalizesPlate(t *testing.T) {
	ctx := context.Background()
	feed := newTestFeed(t)

	feed.Ingest(ctx, models.LaneEntry, " rab 123 c ", 0.95, time.Now().UTC())

	select {
	case event := <-feed.EntryDetections():
		if event.Plate != "RAB123C" {
			t.Fatalf("expected normalized plate, got %q", event.Plate)
		}
	default:
		t.Fatalf("expected detection to pass after normalization")
	}
}

func TestIngestDiscardsInvalidPlate(t *testing.T) {
	ctx := context.Background()
	feed := newTestFeed(t)

	feed.Ingest(ctx, models.LaneEntry, "NOT-A-PLATE", 0.99, time.Now().UTC())

	select {
	case event := <-feed.EntryDetections():
		t.Fatalf("unreadable plate must be discarded, got %+v", event)
	default:
	}
}

func TestIngestDiscardsLowConfidence(t *testing.T) {
	ctx := context.Background()
	feed := newTestFeed(t)

	feed.Ingest(ctx, models.LaneEntry, "RAB123C", 0.50, time.Now().UTC())

	select {
	case event := <-feed.EntryDetections():
		t.Fatalf("low confidence detection must be discarded, got %+v", event)
	default:
	}
}

func TestIngestSuppressesRepeatWithinCooldown(t *testing.T) {
	ctx := context.Background()
	feed := newTestFeed(t)
	at := time.Now().UTC()

	feed.Ingest(ctx, models.LaneEntry, "RAB123C", 0.95, at)
	<-feed.EntryDetections()

	feed.Ingest(ctx, models.LaneEntry, "RAB123C", 0.95, at.Add(time.Second))

	select {
	case event := <-feed.EntryDetections():
		t.Fatalf("repeat within cooldown must be suppressed, got %+v", event)
	default:
	}
}

func TestIngestDropsWhileControllerBusy(t *testing.T) {
	ctx := context.Background()
	feed := newTestFeed(t)
	at := time.Now().UTC()

	// Nobody drains the channel, so only the first detection fits.
	feed.Ingest(ctx, models.LaneExit, "RAB123C", 0.95, at)
	feed.Ingest(ctx, models.LaneExit, "RAZ999Z", 0.95, at)

	first := <-feed.ExitDetections()
	if first.Plate != "RAB123C" {
		t.Fatalf("expected first detection to survive, got %q", first.Plate)
	}
	select {
	case event := <-feed.ExitDetections():
		t.Fatalf("second detection should have been dropped, got %+v", event)
	default:
	}
}

func TestIngestCrossing(t *testing.T) {
	ctx := context.Background()
	feed := newTestFeed(t)
	at := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	feed.IngestCrossing(ctx, " rab123c ", at)

	select {
	case crossing := <-feed.Crossings():
		if crossing.Plate != "RAB123C" {
			t.Fatalf("expected normalized plate, got %q", crossing.Plate)
		}
		if !crossing.CrossedAt.Equal(at) {
			t.Fatalf("expected crossing time %s, got %s", at, crossing.CrossedAt)
		}
	default:
		t.Fatalf("expected a crossing signal")
	}

	feed.IngestCrossing(ctx, "", at)
	select {
	case crossing := <-feed.Crossings():
		t.Fatalf("empty plate must be discarded, got %+v", crossing)
	default:
	}
}
