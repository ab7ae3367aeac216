package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbip-sg/slotstore/internal/abi"
)

// TestGoldenScenarios runs every scenario fixture and compares its trace
// against the checked-in golden file. Any change to call sequencing,
// receipts, or rejection handling shows up here first.
func TestGoldenScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestTraceSnapshot_CanonicalMap(t *testing.T) {
	snapshot := TraceSnapshot{
		ScenarioName: "canonical-check",
		Token:        "tok-1",
		Trace: []TraceEvent{
			{Type: "call", Method: "get", Args: abi.Args{}, Seq: 1},
			{Type: "receipt", OutputCase: "Success", Result: abi.Args{"value": "0"}, Seq: 2},
			{Type: "rejected", Method: "set", OutputCase: "DomainViolation"},
		},
	}

	data, err := abi.MarshalCanonical(snapshot.toCanonicalMap())
	require.NoError(t, err)

	want := `{"scenario_name":"canonical-check","token":"tok-1","trace":[` +
		`{"args":{},"method":"get","seq":1,"type":"call"},` +
		`{"output_case":"Success","result":{"value":"0"},"seq":2,"type":"receipt"},` +
		`{"method":"set","output_case":"DomainViolation","seq":0,"type":"rejected"}]}`
	assert.Equal(t, want, string(data))
}

func TestTraceSnapshot_OmitsEmptyToken(t *testing.T) {
	snapshot := TraceSnapshot{
		ScenarioName: "no-token",
		Trace:        []TraceEvent{},
	}

	data, err := abi.MarshalCanonical(snapshot.toCanonicalMap())
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"no-token","trace":[]}`, string(data))
}
