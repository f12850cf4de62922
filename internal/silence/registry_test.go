package silence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alert-relay-go/internal/duration"
	"alert-relay-go/internal/match"
	"alert-relay-go/internal/models"
	"alert-relay-go/internal/testutil"
)

var baseTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestRegistry() (*Registry, *testutil.MemStore, *testutil.FakeClock) {
	st := testutil.NewMemStore()
	clk := testutil.NewFakeClock(baseTime)
	return NewRegistry(st, clk), st, clk
}

func TestCreateComputesExpiration(t *testing.T) {
	reg, st, _ := newTestRegistry()

	sil, err := reg.Create(context.Background(), "disk", "10m", "ops")
	require.NoError(t, err)

	assert.Equal(t, "disk", sil.Pattern)
	assert.Equal(t, "ops", sil.CreatedBy)
	assert.True(t, sil.Active)
	assert.Equal(t, baseTime.UnixMilli(), sil.CreatedAtMs)
	assert.Equal(t, baseTime.UnixMilli()+10*60*1000, sil.ExpiresAtMs)

	stored, ok := st.StoredSilence(sil.ID)
	require.True(t, ok)
	assert.Equal(t, sil, stored)
}

func TestCreateInvalidDuration(t *testing.T) {
	reg, _, _ := newTestRegistry()

	_, err := reg.Create(context.Background(), "disk", "10x", "ops")
	assert.ErrorIs(t, err, duration.ErrInvalidDuration)
	assert.Empty(t, mustListActive(t, reg))
}

func TestCreateInvalidPattern(t *testing.T) {
	reg, _, _ := newTestRegistry()

	_, err := reg.Create(context.Background(), "[unclosed", "10m", "ops")
	assert.ErrorIs(t, err, match.ErrInvalidPattern)
}

func TestListActiveExcludesExpired(t *testing.T) {
	reg, st, clk := newTestRegistry()

	sil, err := reg.Create(context.Background(), "disk", "10m", "ops")
	require.NoError(t, err)

	clk.Advance(11 * time.Minute)

	active := mustListActive(t, reg)
	assert.Empty(t, active)

	// The stored flag is still true until the sweep flips it; only
	// the active listing treats it as gone.
	stored, ok := st.StoredSilence(sil.ID)
	require.True(t, ok)
	assert.True(t, stored.Active)
}

func TestDelete(t *testing.T) {
	reg, _, _ := newTestRegistry()

	sil, err := reg.Create(context.Background(), "", "1h", "ops")
	require.NoError(t, err)

	ok, err := reg.Delete(context.Background(), sil.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, mustListActive(t, reg))

	ok, err = reg.Delete(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchFirstMostRecentWins(t *testing.T) {
	reg, _, clk := newTestRegistry()

	older, err := reg.Create(context.Background(), "disk", "1h", "ops")
	require.NoError(t, err)
	clk.Advance(time.Minute)
	newer, err := reg.Create(context.Background(), "disk full", "1h", "ops")
	require.NoError(t, err)

	a := models.Alert{ID: "a1", Payload: map[string]any{"title": "Disk full on db-01"}}
	got, err := reg.Match(context.Background(), a)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)
	assert.NotEqual(t, older.ID, got.ID)
}

func TestMatchSkipsNonMatchingAndExpired(t *testing.T) {
	reg, _, clk := newTestRegistry()

	_, err := reg.Create(context.Background(), "network", "1h", "ops")
	require.NoError(t, err)
	expiring, err := reg.Create(context.Background(), "disk", "5m", "ops")
	require.NoError(t, err)

	a := models.Alert{ID: "a1", Payload: map[string]any{"title": "disk usage high"}}

	got, err := reg.Match(context.Background(), a)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, expiring.ID, got.ID)

	clk.Advance(6 * time.Minute)
	got, err = reg.Match(context.Background(), a)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMatchEmptyPatternMatchesEverything(t *testing.T) {
	reg, _, _ := newTestRegistry()

	sil, err := reg.Create(context.Background(), "", "1h", "ops")
	require.NoError(t, err)

	a := models.Alert{ID: "a1", Payload: map[string]any{"title": "whatever"}}
	got, err := reg.Match(context.Background(), a)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sil.ID, got.ID)
}

func mustListActive(t *testing.T, reg *Registry) []models.Silence {
	t.Helper()
	active, err := reg.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	return active
}
