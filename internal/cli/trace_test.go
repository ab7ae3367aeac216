package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHistory(t *testing.T, db string) {
	t.Helper()
	_, err := execute(t, "set", "7", "--db", db, "--token", "trace-test")
	require.NoError(t, err)
	_, err = execute(t, "get", "--db", db, "--token", "trace-test")
	require.NoError(t, err)
}

func TestTraceTimeline(t *testing.T) {
	db := testDBPath(t)
	seedHistory(t, db)

	out, err := execute(t, "trace", "--db", db, "--token", "trace-test")
	require.NoError(t, err)

	assert.Contains(t, out, "Trace for Token: trace-test")
	assert.Contains(t, out, "[1] CALL set {value=7}")
	assert.Contains(t, out, "[2] RCPT Success {}")
	assert.Contains(t, out, "[3] CALL get {}")
	assert.Contains(t, out, "[4] RCPT Success {value=7}")
	assert.Contains(t, out, "Writes:       1")
	assert.Contains(t, out, "Reads:        1")
}

func TestTraceMethodFilter(t *testing.T) {
	db := testDBPath(t)
	seedHistory(t, db)

	out, err := execute(t, "trace", "--db", db, "--token", "trace-test", "--method", "set")
	require.NoError(t, err)

	assert.Contains(t, out, "CALL set")
	assert.NotContains(t, out, "CALL get")
	// The filtered call's receipt stays in the timeline
	assert.Contains(t, out, "[2] RCPT Success")
	assert.NotContains(t, out, "[4] RCPT")
}

func TestTraceUnknownToken(t *testing.T) {
	db := testDBPath(t)
	seedHistory(t, db)

	out, err := execute(t, "trace", "--db", db, "--token", "nobody")
	require.NoError(t, err)
	assert.Contains(t, out, "No calls found for token: nobody")
}

func TestTraceJSON(t *testing.T) {
	db := testDBPath(t)
	seedHistory(t, db)

	out, err := execute(t, "--format", "json", "trace", "--db", db, "--token", "trace-test")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "trace-test", data["token"])

	timeline, ok := data["timeline"].([]interface{})
	require.True(t, ok)
	assert.Len(t, timeline, 4)

	stats, ok := data["stats"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), stats["calls"])
	assert.Equal(t, float64(2), stats["receipts"])
}

func TestTraceVerboseShowsIDs(t *testing.T) {
	db := testDBPath(t)
	seedHistory(t, db)

	out, err := execute(t, "--verbose", "trace", "--db", db, "--token", "trace-test")
	require.NoError(t, err)
	assert.Contains(t, out, "ID: ")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	long := "0123456789abcdef0123456789abcdef"
	assert.Equal(t, "01234567...89abcdef", truncateID(long))
}
