package dashboard

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/srijanmgr/chiyapasal/internal/logging"
	"github.com/srijanmgr/chiyapasal/internal/models"
	"github.com/srijanmgr/chiyapasal/internal/notify"
	"github.com/srijanmgr/chiyapasal/internal/storage"
)

const (
	// DefaultPollInterval is the refresh timer that backstops lost
	// notifications.
	DefaultPollInterval = 5 * time.Second

	// NewOrderDwell is how long an order keeps its "new" highlight after
	// it is first observed.
	NewOrderDwell = 15 * time.Second
)

type OrderView struct {
	models.Order
	New bool `json:"new"`
}

type TableView struct {
	TableNumber string      `json:"table_number"`
	Orders      []OrderView `json:"orders"`
}

// Snapshot is one dashboard read: all pending orders grouped by table,
// tables in ascending numeric order, orders newest-first. PlaySound is
// computed against the caller's cursor (see Aggregator.Snapshot), so
// each client hears the sound for an order exactly once.
type Snapshot struct {
	Tables      []TableView `json:"tables"`
	PlaySound   bool        `json:"play_sound"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// TableNumbers lists the tables of the snapshot, for the billing
// selector.
func (s *Snapshot) TableNumbers() []string {
	numbers := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		numbers = append(numbers, t.TableNumber)
	}
	return numbers
}

type Aggregator struct {
	Store    *storage.OrderStore
	Settings *storage.SettingsStore

	dwell time.Duration
	now   func() time.Time

	mu        sync.Mutex
	firstSeen map[string]time.Time
}

func NewAggregator(store *storage.OrderStore, settings *storage.SettingsStore) *Aggregator {
	return &Aggregator{
		Store:     store,
		Settings:  settings,
		dwell:     NewOrderDwell,
		now:       time.Now,
		firstSeen: make(map[string]time.Time),
	}
}

// Snapshot re-reads full state and recomputes the view. The caller's
// refresh cycle is defined by since, normally the GeneratedAt of its
// previous snapshot: an order counts as new for the caller when the
// server first observed it after that instant, so the sound fires once
// per order per client regardless of how the client's polling
// interleaves with the server timer or other clients. A zero since (the
// client's first poll) never plays.
func (a *Aggregator) Snapshot(ctx context.Context, since time.Time) (*Snapshot, error) {
	orders, err := a.Store.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()

	now := a.now()
	newForCaller := false
	pending := make(map[string]struct{}, len(orders))

	byTable := make(map[string][]OrderView)
	for _, order := range orders {
		pending[order.ID] = struct{}{}

		seenAt, seen := a.firstSeen[order.ID]
		if !seen {
			a.firstSeen[order.ID] = now
			seenAt = now
		}
		if !since.IsZero() && seenAt.After(since) {
			newForCaller = true
		}

		byTable[order.TableNumber] = append(byTable[order.TableNumber], OrderView{
			Order: order,
			New:   now.Sub(seenAt) < a.dwell,
		})
	}

	// Forget settled orders so the seen-set does not grow unbounded.
	for id := range a.firstSeen {
		if _, ok := pending[id]; !ok {
			delete(a.firstSeen, id)
		}
	}

	a.mu.Unlock()

	snapshot := &Snapshot{GeneratedAt: now}
	for _, tableNumber := range sortedTableNumbers(byTable) {
		views := byTable[tableNumber]
		sort.Slice(views, func(i, j int) bool {
			if !views[i].CreatedAt.Equal(views[j].CreatedAt) {
				return views[i].CreatedAt.After(views[j].CreatedAt)
			}
			return views[i].ID < views[j].ID
		})
		snapshot.Tables = append(snapshot.Tables, TableView{
			TableNumber: tableNumber,
			Orders:      views,
		})
	}

	if newForCaller {
		enabled, err := a.Settings.SoundEnabled(ctx)
		if err != nil {
			logging.FromContext(ctx).Warn("sound_preference_read_failed", "error", err)
		}
		snapshot.PlaySound = enabled
	}

	return snapshot, nil
}

// Refresh recomputes the view without a caller cursor, keeping the
// seen-set and dwell windows current. It backs the polling timer and the
// post-settlement updates; it is idempotent, so both triggers can drive
// it freely.
func (a *Aggregator) Refresh(ctx context.Context) error {
	_, err := a.Snapshot(ctx, time.Time{})
	return err
}

// Run refreshes on a fixed timer and additionally whenever the hub
// signals a new order. Both triggers drive the same Refresh; the timer is
// the correctness guarantee, the hub only cuts latency.
func (a *Aggregator) Run(ctx context.Context, hub *notify.Hub, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	var kick <-chan struct{}
	if hub != nil {
		ch, cancel := hub.Subscribe()
		defer cancel()
		kick = ch
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-kick:
		}
		if err := a.Refresh(ctx); err != nil {
			logging.FromContext(ctx).Error("dashboard_refresh_failed", "error", err)
		}
	}
}

// Numeric tables sort ascending by value; non-numeric identifiers sort
// after them, lexicographically.
func sortedTableNumbers(byTable map[string][]OrderView) []string {
	numbers := make([]string, 0, len(byTable))
	for tableNumber := range byTable {
		numbers = append(numbers, tableNumber)
	}
	sort.Slice(numbers, func(i, j int) bool {
		a, aErr := strconv.Atoi(numbers[i])
		b, bErr := strconv.Atoi(numbers[j])
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return numbers[i] < numbers[j]
		}
	})
	return numbers
}
