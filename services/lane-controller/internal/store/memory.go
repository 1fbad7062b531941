package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"parkgate/services/lane-controller/internal/models"
)

// Memory is an in-process Store with per-plate locking. It backs tests and
// the dev mode where no database is configured; it does not survive restart.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*models.Transaction

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextID: 1,
		byID:   make(map[int64]*models.Transaction),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (m *Memory) plateLock(plate string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	lock, ok := m.locks[plate]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[plate] = lock
	}
	return lock
}

// Open implements Store.
func (m *Memory) Open(ctx context.Context, plate string, entryTime time.Time) (int64, error) {
	lock := m.plateLock(plate)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	duplicate := false
	for _, tx := range m.byID {
		if tx.Plate == plate && tx.Open() {
			duplicate = true
			break
		}
	}

	id := m.nextID
	m.nextID++
	now := time.Now().UTC()
	m.byID[id] = &models.Transaction{
		ID:            id,
		Plate:         plate,
		EntryTime:     entryTime.UTC(),
		PaymentStatus: models.PaymentStatusUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if duplicate {
		return id, ErrDuplicateOpen
	}
	return id, nil
}

// FindOpen implements Store.
func (m *Memory) FindOpen(ctx context.Context, plate string) (*models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var newest *models.Transaction
	for _, tx := range m.byID {
		if tx.Plate != plate || !tx.Open() {
			continue
		}
		if newest == nil || tx.EntryTime.After(newest.EntryTime) || (tx.EntryTime.Equal(newest.EntryTime) && tx.ID > newest.ID) {
			newest = tx
		}
	}
	if newest == nil {
		return nil, ErrNotFound
	}
	cp := *newest
	return &cp, nil
}

func (m *Memory) close(id int64, mutate func(tx *models.Transaction)) error {
	m.mu.RLock()
	tx, ok := m.byID[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	lock := m.plateLock(tx.Plate)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok = m.byID[id]
	if !ok {
		return ErrNotFound
	}
	if !tx.Open() {
		return ErrAlreadyClosed
	}
	mutate(tx)
	tx.UpdatedAt = time.Now().UTC()
	return nil
}

// ClosePaid implements Store.
func (m *Memory) ClosePaid(ctx context.Context, id int64, exitTime time.Time, amount int64) error {
	return m.close(id, func(tx *models.Transaction) {
		exit := exitTime.UTC()
		tx.ExitTime = &exit
		tx.PaymentStatus = models.PaymentStatusPaid
		tx.PaymentAmount = &amount
		tx.PaymentTime = &exit
	})
}

// CloseUnauthorized implements Store.
func (m *Memory) CloseUnauthorized(ctx context.Context, id int64, exitTime time.Time) error {
	return m.close(id, func(tx *models.Transaction) {
		exit := exitTime.UTC()
		tx.ExitTime = &exit
		tx.UnauthorizedExit = true
	})
}

// ListRecent implements Store.
func (m *Memory) ListRecent(ctx context.Context, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	m.mu.RLock()
	all := make([]models.Transaction, 0, len(m.byID))
	for _, tx := range m.byID {
		all = append(all, *tx)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].EntryTime.Equal(all[j].EntryTime) {
			return all[i].ID > all[j].ID
		}
		return all[i].EntryTime.After(all[j].EntryTime)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// DailyStats implements Store.
func (m *Memory) DailyStats(ctx context.Context, day time.Time) (*DailyStats, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	sameDay := func(t *time.Time) bool {
		return t != nil && !t.Before(start) && t.Before(end)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &DailyStats{Day: start}
	for _, tx := range m.byID {
		entry := tx.EntryTime
		if !entry.Before(start) && entry.Before(end) {
			stats.Entries++
		}
		if sameDay(tx.ExitTime) {
			stats.Exits++
			if tx.UnauthorizedExit {
				stats.Unauthorized++
			}
		}
		if sameDay(tx.PaymentTime) && tx.PaymentAmount != nil {
			stats.Revenue += *tx.PaymentAmount
		}
	}
	return stats, nil
}
