package appconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "concretestv.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "info", cfg.DefaultVerbosity)

	_, err = os.Stat(path)
	require.NoError(t, err, "expected default config file to be written")
}

func TestLoadReadsExistingFileWithoutRewriting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "concretestv.toml")
	body := "DefaultSeed = 42\nDefaultVerbosity = \"debug\"\nOutputDir = \"/tmp/out\"\nMetricsAddr = \":9100\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(42), cfg.DefaultSeed)
	require.Equal(t, "debug", cfg.DefaultVerbosity)
	require.Equal(t, "/tmp/out", cfg.OutputDir)
	require.Equal(t, ":9100", cfg.MetricsAddr)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, body, string(after), "expected Load to leave an existing file untouched")
}
