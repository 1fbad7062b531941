package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryOpenAndFindOpen(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	entry := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	id, err := st.Open(ctx, "RAB123C", entry)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	tx, err := st.FindOpen(ctx, "RAB123C")
	if err != nil {
		t.Fatalf("find open: %v", err)
	}
	if tx.ID != id {
		t.Fatalf("expected id %d, got %d", id, tx.ID)
	}
	if !tx.EntryTime.Equal(entry) {
		t.Fatalf("expected entry time %s, got %s", entry, tx.EntryTime)
	}
	if !tx.Open() {
		t.Fatalf("expected transaction to be open")
	}
}

func TestMemoryDuplicateOpenKeepsNewestAuthoritative(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	first := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	if _, err := st.Open(ctx, "RAB123C", first); err != nil {
		t.Fatalf("first open: %v", err)
	}

	second := first.Add(2 * time.Hour)
	id2, err := st.Open(ctx, "RAB123C", second)
	if !errors.Is(err, ErrDuplicateOpen) {
		t.Fatalf("expected ErrDuplicateOpen, got %v", err)
	}
	if id2 == 0 {
		t.Fatalf("duplicate open must still create a record")
	}

	tx, err := st.FindOpen(ctx, "RAB123C")
	if err != nil {
		t.Fatalf("find open: %v", err)
	}
	if tx.ID != id2 {
		t.Fatalf("expected newest record %d to be authoritative, got %d", id2, tx.ID)
	}
}

func TestMemoryFindOpenNotFound(t *testing.T) {
	st := NewMemory()
	if _, err := st.FindOpen(context.Background(), "RAB123C"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryClosePaid(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	entry := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	exit := entry.Add(90 * time.Minute)

	id, err := st.Open(ctx, "RAB123C", entry)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.ClosePaid(ctx, id, exit, 1000); err != nil {
		t.Fatalf("close paid: %v", err)
	}

	if _, err := st.FindOpen(ctx, "RAB123C"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no open transaction after close, got %v", err)
	}

	recent, err := st.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(recent))
	}
	tx := recent[0]
	if tx.PaymentStatus != "paid" {
		t.Fatalf("expected paid status, got %s", tx.PaymentStatus)
	}
	if tx.PaymentAmount == nil || *tx.PaymentAmount != 1000 {
		t.Fatalf("expected payment amount 1000, got %v", tx.PaymentAmount)
	}
	if tx.ExitTime == nil || !tx.ExitTime.Equal(exit) {
		t.Fatalf("expected exit time %s, got %v", exit, tx.ExitTime)
	}
	if tx.UnauthorizedExit {
		t.Fatalf("paid exit must not be flagged unauthorized")
	}
}

func TestMemoryCloseIsNotRepeatable(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	entry := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	exit := entry.Add(time.Hour)

	id, err := st.Open(ctx, "RAB123C", entry)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.ClosePaid(ctx, id, exit, 500); err != nil {
		t.Fatalf("close paid: %v", err)
	}

	if err := st.ClosePaid(ctx, id, exit.Add(time.Minute), 500); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed on second paid close, got %v", err)
	}
	if err := st.CloseUnauthorized(ctx, id, exit.Add(time.Minute)); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed on unauthorized close, got %v", err)
	}
}

func TestMemoryCloseUnknownID(t *testing.T) {
	st := NewMemory()
	if err := st.ClosePaid(context.Background(), 42, time.Now(), 500); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryCloseUnauthorized(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	entry := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	crossed := entry.Add(30 * time.Minute)

	id, err := st.Open(ctx, "RAB123C", entry)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.CloseUnauthorized(ctx, id, crossed); err != nil {
		t.Fatalf("close unauthorized: %v", err)
	}

	recent, err := st.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	tx := recent[0]
	if !tx.UnauthorizedExit {
		t.Fatalf("expected unauthorized flag")
	}
	if tx.PaymentStatus != "unpaid" {
		t.Fatalf("unauthorized exit must stay unpaid, got %s", tx.PaymentStatus)
	}
	if tx.PaymentAmount != nil {
		t.Fatalf("unauthorized exit must not carry a payment amount")
	}
}

func TestMemoryConcurrentOpensDifferentPlates(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	plates := []string{"RAA111A", "RAB222B", "RAC333C", "RAD444D", "RAE555E"}

	var wg sync.WaitGroup
	for _, plate := range plates {
		wg.Add(1)
		go func(plate string) {
			defer wg.Done()
			if _, err := st.Open(ctx, plate, time.Now().UTC()); err != nil {
				t.Errorf("open %s: %v", plate, err)
			}
		}(plate)
	}
	wg.Wait()

	for _, plate := range plates {
		if _, err := st.FindOpen(ctx, plate); err != nil {
			t.Fatalf("find open %s: %v", plate, err)
		}
	}
}

func TestMemoryListRecentOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		plate := "RA" + string(rune('A'+i)) + "123" + string(rune('A'+i))
		if _, err := st.Open(ctx, plate, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
	}

	recent, err := st.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(recent))
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].EntryTime.After(recent[i-1].EntryTime) {
			t.Fatalf("expected newest-first ordering")
		}
	}
}

func TestMemoryDailyStats(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	// Paid exit within the day.
	id1, _ := st.Open(ctx, "RAA111A", day.Add(8*time.Hour))
	if err := st.ClosePaid(ctx, id1, day.Add(10*time.Hour), 1000); err != nil {
		t.Fatalf("close paid: %v", err)
	}

	// Unauthorized exit within the day.
	id2, _ := st.Open(ctx, "RAB222B", day.Add(9*time.Hour))
	if err := st.CloseUnauthorized(ctx, id2, day.Add(9*time.Hour+30*time.Minute)); err != nil {
		t.Fatalf("close unauthorized: %v", err)
	}

	// Still parked.
	if _, err := st.Open(ctx, "RAC333C", day.Add(11*time.Hour)); err != nil {
		t.Fatalf("open: %v", err)
	}

	// Previous day, must not count.
	id4, _ := st.Open(ctx, "RAD444D", day.Add(-10*time.Hour))
	if err := st.ClosePaid(ctx, id4, day.Add(-8*time.Hour), 500); err != nil {
		t.Fatalf("close paid previous day: %v", err)
	}

	stats, err := st.DailyStats(ctx, day.Add(13*time.Hour))
	if err != nil {
		t.Fatalf("daily stats: %v", err)
	}
	if stats.Entries != 3 {
		t.Fatalf("expected 3 entries, got %d", stats.Entries)
	}
	if stats.Exits != 2 {
		t.Fatalf("expected 2 exits, got %d", stats.Exits)
	}
	if stats.Revenue != 1000 {
		t.Fatalf("expected revenue 1000, got %d", stats.Revenue)
	}
	if stats.Unauthorized != 1 {
		t.Fatalf("expected 1 unauthorized exit, got %d", stats.Unauthorized)
	}
}
