package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Text(t *testing.T) {
	var buf bytes.Buffer
	cleanup, err := Setup(Config{Stderr: &buf})
	require.NoError(t, err)
	require.NoError(t, IsReady())
	assert.Empty(t, Path())

	L().Info("run.start", "variant", "v3-device")
	L().Debug("hidden")
	assert.Contains(t, buf.String(), "run.start")
	assert.Contains(t, buf.String(), "variant=v3-device")
	assert.NotContains(t, buf.String(), "hidden")

	require.NoError(t, cleanup())
	assert.Error(t, IsReady())
}

func TestSetup_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bornprof.log")
	cleanup, err := Setup(Config{Path: path, Debug: true})
	require.NoError(t, err)
	assert.Equal(t, path, Path())
	assert.False(t, InitTime().IsZero())

	L().Debug("run.warmup", "iterations", 1)
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec["msg"] == "run.warmup" {
			found = true
			assert.Contains(t, rec, "source")
			assert.True(t, strings.HasSuffix(rec["time"].(string), "Z"))
		}
	}
	assert.True(t, found)
}

func TestL_DiscardsBeforeSetup(t *testing.T) {
	assert.NotNil(t, L())
	L().Info("nobody listens")
}
