package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/srijanmgr/chiyapasal/internal/models"
	"github.com/srijanmgr/chiyapasal/internal/notify"
	"github.com/srijanmgr/chiyapasal/internal/storage"
)

type testEnv struct {
	store    *storage.OrderStore
	settings *storage.SettingsStore
	agg      *Aggregator
	clock    *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.Setting{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	store := storage.NewOrderStore(db)
	settings := storage.NewSettingsStore(db)
	agg := NewAggregator(store, settings)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return now }

	return &testEnv{store: store, settings: settings, agg: agg, clock: &now}
}

func (env *testEnv) addOrder(t *testing.T, id, table string, createdAt time.Time) {
	t.Helper()
	err := env.store.Append(context.Background(), &models.Order{
		ID:          id,
		TableNumber: table,
		Items: []models.OrderItem{
			{OrderID: id, ItemID: "2", Name: "Chiya Normal", Quantity: 1, UnitPrice: decimal.NewFromInt(30)},
		},
		Total:     decimal.NewFromInt(30),
		Status:    models.StatusPending,
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
}

func TestSnapshotGroupsAndSortsTables(t *testing.T) {
	env := newTestEnv(t)
	base := *env.clock

	env.addOrder(t, "o1", "10", base)
	env.addOrder(t, "o2", "2", base)
	env.addOrder(t, "o3", "2", base.Add(time.Minute))

	snap, err := env.agg.Snapshot(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, snap.Tables, 2)

	// Numeric ascending, not lexicographic.
	require.Equal(t, "2", snap.Tables[0].TableNumber)
	require.Equal(t, "10", snap.Tables[1].TableNumber)
	require.Equal(t, []string{"2", "10"}, snap.TableNumbers())

	// Newest order first within a table.
	require.Len(t, snap.Tables[0].Orders, 2)
	require.Equal(t, "o3", snap.Tables[0].Orders[0].ID)
	require.Equal(t, "o2", snap.Tables[0].Orders[1].ID)
}

func TestNewFlagClearsAfterDwell(t *testing.T) {
	env := newTestEnv(t)
	env.addOrder(t, "o1", "4", *env.clock)

	snap, err := env.agg.Snapshot(context.Background(), time.Time{})
	require.NoError(t, err)
	require.True(t, snap.Tables[0].Orders[0].New)

	// Still inside the dwell window.
	*env.clock = env.clock.Add(NewOrderDwell / 2)
	snap, err = env.agg.Snapshot(context.Background(), time.Time{})
	require.NoError(t, err)
	require.True(t, snap.Tables[0].Orders[0].New)

	// Past the dwell window the highlight drops without touching storage.
	*env.clock = env.clock.Add(NewOrderDwell)
	snap, err = env.agg.Snapshot(context.Background(), time.Time{})
	require.NoError(t, err)
	require.False(t, snap.Tables[0].Orders[0].New)

	orders, err := env.store.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, models.StatusPending, orders[0].Status)
}

func TestSoundPlaysOncePerClientCursor(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.settings.SetSoundEnabled(context.Background(), true))

	env.addOrder(t, "o1", "4", *env.clock)

	// A client's first poll carries no cursor and stays silent.
	s1, err := env.agg.Snapshot(context.Background(), time.Time{})
	require.NoError(t, err)
	require.False(t, s1.PlaySound)

	// o1 was already in the previous snapshot, so polling again with
	// that snapshot's cursor stays silent too.
	s2, err := env.agg.Snapshot(context.Background(), s1.GeneratedAt)
	require.NoError(t, err)
	require.False(t, s2.PlaySound)

	*env.clock = env.clock.Add(5 * time.Second)
	env.addOrder(t, "o2", "4", *env.clock)

	s3, err := env.agg.Snapshot(context.Background(), s2.GeneratedAt)
	require.NoError(t, err)
	require.True(t, s3.PlaySound)

	// Advancing the cursor consumes the sound.
	s4, err := env.agg.Snapshot(context.Background(), s3.GeneratedAt)
	require.NoError(t, err)
	require.False(t, s4.PlaySound)
}

func TestSoundSurvivesInterveningRefreshes(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.settings.SetSoundEnabled(context.Background(), true))

	// Client polls once before anything happens.
	s1, err := env.agg.Snapshot(context.Background(), time.Time{})
	require.NoError(t, err)

	// An order arrives and the server timer fires twice before the
	// client polls again.
	*env.clock = env.clock.Add(5 * time.Second)
	env.addOrder(t, "o1", "4", *env.clock)
	require.NoError(t, env.agg.Refresh(context.Background()))
	*env.clock = env.clock.Add(5 * time.Second)
	require.NoError(t, env.agg.Refresh(context.Background()))

	// The slow client still hears the sound for o1 exactly once.
	*env.clock = env.clock.Add(time.Second)
	s2, err := env.agg.Snapshot(context.Background(), s1.GeneratedAt)
	require.NoError(t, err)
	require.True(t, s2.PlaySound)

	s3, err := env.agg.Snapshot(context.Background(), s2.GeneratedAt)
	require.NoError(t, err)
	require.False(t, s3.PlaySound)
}

func TestSoundRespectsPreference(t *testing.T) {
	env := newTestEnv(t)

	s1, err := env.agg.Snapshot(context.Background(), time.Time{})
	require.NoError(t, err)

	*env.clock = env.clock.Add(5 * time.Second)
	env.addOrder(t, "o1", "4", *env.clock)

	// New for this client, but the preference is off.
	s2, err := env.agg.Snapshot(context.Background(), s1.GeneratedAt)
	require.NoError(t, err)
	require.False(t, s2.PlaySound)
}

func TestSettledOrdersLeaveTheSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.addOrder(t, "o1", "4", *env.clock)

	require.NoError(t, env.agg.Refresh(context.Background()))

	_, err := env.store.MarkPaidByTable(context.Background(), "4")
	require.NoError(t, err)

	snap, err := env.agg.Snapshot(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Empty(t, snap.Tables)
}

func TestHubKickTriggersRefresh(t *testing.T) {
	env := newTestEnv(t)
	hub := notify.NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		env.agg.Run(ctx, hub, time.Hour)
		close(done)
	}()

	env.addOrder(t, "o1", "4", *env.clock)

	require.Eventually(t, func() bool {
		// Re-send in case the first signal raced Run's subscription.
		require.NoError(t, hub.NotifyNewOrder(context.Background(), "4"))
		env.agg.mu.Lock()
		_, seen := env.agg.firstSeen["o1"]
		env.agg.mu.Unlock()
		return seen
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
