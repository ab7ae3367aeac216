package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbip-sg/slotstore/internal/abi"
	"github.com/sbip-sg/slotstore/internal/store"
)

// runHistory applies a short set/get history and shuts the host down so the
// journal can be inspected cold.
func runHistory(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()

	h, err := Open(ctx, s, abi.DefaultSpec(), NewFixedGenerator("tok-1"))
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- h.Run(ctx) }()

	_, _, err = h.Apply(ctx, "tok-1", "set", map[string]string{"value": "5"})
	require.NoError(t, err)
	_, _, err = h.Apply(ctx, "tok-1", "get", nil)
	require.NoError(t, err)
	_, _, err = h.Apply(ctx, "tok-1", "set", map[string]string{"value": "9"})
	require.NoError(t, err)
	_, _, err = h.Apply(ctx, "tok-1", "get", nil)
	require.NoError(t, err)

	h.Stop()
	require.NoError(t, <-errCh)
}

func TestReplay_EmptyJournal(t *testing.T) {
	s := setupTestStore(t)

	report, err := Replay(context.Background(), s, abi.DefaultSpec())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Calls)
	assert.Equal(t, 0, report.Receipts)
	assert.False(t, report.Diverged())
	assert.True(t, report.FinalValue.IsZero(), "empty journal replays to genesis")
}

func TestReplay_ReproducesHistory(t *testing.T) {
	s := setupTestStore(t)
	runHistory(t, s)

	report, err := Replay(context.Background(), s, abi.DefaultSpec())
	require.NoError(t, err)

	assert.False(t, report.Diverged(), "divergences: %v", report.Divergences)
	assert.Equal(t, 4, report.Calls)
	assert.Equal(t, 4, report.Receipts)
	assert.Equal(t, "9", report.FinalValue.String())
}

func TestReplay_Idempotent(t *testing.T) {
	s := setupTestStore(t)
	runHistory(t, s)
	ctx := context.Background()

	first, err := Replay(ctx, s, abi.DefaultSpec())
	require.NoError(t, err)
	second, err := Replay(ctx, s, abi.DefaultSpec())
	require.NoError(t, err)

	assert.Equal(t, first.FinalValue, second.FinalValue)
	assert.Equal(t, first.Divergences, second.Divergences)
}

func TestReplay_DetectsTamperedSlot(t *testing.T) {
	s := setupTestStore(t)
	runHistory(t, s)

	_, err := s.DB().Exec(`UPDATE slots SET value = ?`, "0x"+"00"+"0000000000000000000000000000000000000000000000000000000000ff")
	require.NoError(t, err)

	report, err := Replay(context.Background(), s, abi.DefaultSpec())
	require.NoError(t, err)
	assert.True(t, report.Diverged(), "edited slot row must diverge from the journal")
}

func TestReplay_DetectsTamperedArgs(t *testing.T) {
	s := setupTestStore(t)
	runHistory(t, s)

	_, err := s.DB().Exec(`UPDATE calls SET args = ? WHERE method = 'set' AND seq = 1`, `{"value":"6"}`)
	require.NoError(t, err)

	report, err := Replay(context.Background(), s, abi.DefaultSpec())
	require.NoError(t, err)
	assert.True(t, report.Diverged(), "edited call args must break the content hash")
}

func TestReplay_DetectsMissingReceipt(t *testing.T) {
	s := setupTestStore(t)
	runHistory(t, s)

	_, err := s.DB().Exec(`DELETE FROM receipts WHERE seq = 2`)
	require.NoError(t, err)

	report, err := Replay(context.Background(), s, abi.DefaultSpec())
	require.NoError(t, err)
	assert.True(t, report.Diverged())
}

func TestReplay_DetectsStaleGetReceipt(t *testing.T) {
	s := setupTestStore(t)
	runHistory(t, s)

	// Rewrite the second get receipt to claim it observed the old word
	_, err := s.DB().Exec(`UPDATE receipts SET result = ? WHERE seq = 8`, `{"value":"5"}`)
	require.NoError(t, err)

	report, err := Replay(context.Background(), s, abi.DefaultSpec())
	require.NoError(t, err)
	assert.True(t, report.Diverged())
}
