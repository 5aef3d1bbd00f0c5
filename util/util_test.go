package util

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressLineKeepsLastLine(t *testing.T) {
	line := &ProgressLine{}
	n, err := line.Write([]byte("episode 1\nepisode 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Equal(t, "episode 2", line.Get())
}

func TestTerminalPrinterDrawsOnStop(t *testing.T) {
	buf := new(bytes.Buffer)
	printer := NewTerminalPrinter(time.Hour)
	printer.writer.Out = buf
	first := printer.NewOutput()
	second := printer.NewOutput()

	printer.Start(context.Background())
	first.Write([]byte("run a\n"))
	second.Write([]byte("run b\n"))
	printer.Stop()
	printer.Stop()

	assert.Contains(t, buf.String(), "run a")
	assert.Contains(t, buf.String(), "run b")
}

func TestSaveJson(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, SaveJson(file, map[string]int{"a": 1}))

	bs, err := os.ReadFile(file)
	require.NoError(t, err)
	var out map[string]int
	require.NoError(t, json.Unmarshal(bs, &out))
	assert.Equal(t, 1, out["a"])

	assert.Error(t, SaveJson(file, func() {}))
}

func TestJsonHash(t *testing.T) {
	hash := func(v interface{}) string {
		h, err := JsonHash(v)
		require.NoError(t, err)
		return h
	}
	a := hash(map[string]int{"x": 1, "y": 2})
	assert.Len(t, a, 64)
	assert.Equal(t, a, hash(map[string]int{"y": 2, "x": 1}))
	assert.NotEqual(t, a, hash(map[string]int{"x": 2}))

	_, err := JsonHash(math.NaN())
	assert.Error(t, err)
	_, err = JsonHash(make(chan int))
	assert.Error(t, err)
}

func TestCopyIntSlice(t *testing.T) {
	in := []int{1, 2, 3}
	out := CopyIntSlice(in)
	out[0] = 9
	assert.Equal(t, []int{1, 2, 3}, in)
}
