package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testInput = `{"total_items": 8, "discount%": 0, "weekday": "Sat", "hour": "10h"}`

func TestMain(m *testing.M) {
	initLogging(false)
	os.Exit(m.Run())
}

func ordersCSV(n int) string {
	var sb strings.Builder
	sb.WriteString("customer,order,total_items,discount%,weekday,hour,Food%,Fresh%,Drinks%,Home%,Beauty%,Health%,Baby%,Pets%\n")
	for i := 0; i < n; i++ {
		shares := make([]float64, 8)
		shares[i%8] = 55
		shares[(i+2)%8] += 45
		fmt.Fprintf(&sb, "%d,%d,%d,%.1f,%d,%d", i, 9000+i, 1+i%25, float64(i%20), 1+i%7, i%24)
		for _, s := range shares {
			fmt.Fprintf(&sb, ",%.1f", s)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

type testEnv struct {
	dir   string
	data  string
	input string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{dir: t.TempDir()}
	e.data = filepath.Join(e.dir, "orders.csv")
	e.input = filepath.Join(e.dir, "input_spec.json")
	require.NoError(t, os.WriteFile(e.data, []byte(ordersCSV(100)), 0600))
	require.NoError(t, os.WriteFile(e.input, []byte(testInput), 0600))
	return e
}

func (e *testEnv) run(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var buf bytes.Buffer
	app.Writer = &buf
	app.Reader = in
	err := app.Run(context.Background(), append([]string{appName, "--config", e.dir}, args...))
	return buf.String(), err
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m), s)
	return m
}

func TestTrainScoreHistory(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t, nil, "train", "--data", e.data)
	require.NoError(t, err)
	res := decode(t, out)
	assert.NotEmpty(t, res["run_id"])
	assert.EqualValues(t, 100, res["total_rows"])
	assert.FileExists(t, filepath.Join(e.dir, "minmax_scaler.json"))
	assert.FileExists(t, filepath.Join(e.dir, "final_model.json"))

	output := filepath.Join(e.dir, "output_spec.json")
	out, err = e.run(t, nil, "score", "--input", e.input, "--output", output)
	require.NoError(t, err)
	assert.Len(t, decode(t, out)["output"], 8)
	fromFiles, err := os.ReadFile(output)
	require.NoError(t, err)

	_, err = e.run(t, nil, "score", "--input", e.input, "--output", output, "--from-registry")
	require.NoError(t, err)
	fromRegistry, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, string(fromFiles), string(fromRegistry))

	out, err = e.run(t, nil, "history", "--limit", "5")
	require.NoError(t, err)
	h := decode(t, out)
	counts := h["counts"].(map[string]any)
	assert.EqualValues(t, 1, counts["training_run"])
	assert.EqualValues(t, 2, counts["score"])
	assert.EqualValues(t, 0, counts["simulation"])
	assert.Len(t, h["scores"], 2)
}

func TestScore_FromEmptyRegistry(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.run(t, nil, "score", "--input", e.input, "--output", filepath.Join(e.dir, "out.json"), "--from-registry")
	assert.Error(t, err)
}

func TestScore_InvalidInput(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.run(t, nil, "train", "--data", e.data)
	require.NoError(t, err)

	bad := filepath.Join(e.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"total_items": 1}`), 0600))
	_, err = e.run(t, nil, "score", "--input", bad, "--output", filepath.Join(e.dir, "out.json"))
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(e.dir, "out.json"))
}

func TestSimulate(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t, nil, "simulate", "--games", "500", "--seed", "7")
	require.NoError(t, err)
	res := decode(t, out)
	counts := res["counts"].(map[string]any)
	assert.EqualValues(t, 500, counts["games"])
	total := counts["win_X"].(float64) + counts["win_O"].(float64) + counts["tie"].(float64)
	assert.EqualValues(t, 500, total)

	legacy, err := e.run(t, nil, "simulate", "--games", "500", "--seed", "7", "--legacy-tally")
	require.NoError(t, err)
	lc := decode(t, legacy)["counts"].(map[string]any)
	assert.Equal(t, counts["win_O"], lc["tie"])
	assert.Equal(t, counts["tie"], lc["win_O"])

	_, err = e.run(t, nil, "simulate", "--games", "0")
	assert.Error(t, err)
}

func TestSimulate_MaxSeedRoundTrips(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.run(t, nil, "simulate", "--games", "20", "--seed", "18446744073709551615")
	require.NoError(t, err)

	out, err := e.run(t, nil, "--format", "yaml", "history")
	require.NoError(t, err)

	var h struct {
		Simulations []struct {
			Seed uint64 `yaml:"seed"`
		} `yaml:"simulations"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &h))
	require.Len(t, h.Simulations, 1)
	assert.Equal(t, uint64(18446744073709551615), h.Simulations[0].Seed)
}

func TestHistory_YAML(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.run(t, nil, "simulate", "--games", "10")
	require.NoError(t, err)

	out, err := e.run(t, nil, "--format", "yaml", "history")
	require.NoError(t, err)

	var h map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &h))
	sims := h["simulations"].([]any)
	require.Len(t, sims, 1)
	s := sims[0].(map[string]any)
	assert.Equal(t, 10, s["games"])
	assert.NotEmpty(t, s["age"])
}

func TestReset(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.run(t, nil, "simulate", "--games", "10")
	require.NoError(t, err)

	out, err := e.run(t, strings.NewReader("n\n"), "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")

	out, err = e.run(t, nil, "history")
	require.NoError(t, err)
	assert.EqualValues(t, 1, decode(t, out)["counts"].(map[string]any)["simulation"])

	out, err = e.run(t, strings.NewReader("y\n"), "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset complete.")

	_, err = e.run(t, nil, "simulate", "--games", "10")
	require.NoError(t, err)
	_, err = e.run(t, nil, "reset", "--yes")
	require.NoError(t, err)

	out, err = e.run(t, nil, "history")
	require.NoError(t, err)
	assert.EqualValues(t, 0, decode(t, out)["counts"].(map[string]any)["simulation"])
}

func TestHistory_InvalidLimit(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.run(t, nil, "history", "--limit", "0")
	assert.Error(t, err)
}
