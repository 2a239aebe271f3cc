package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "ciborg.db", cfg.SQLitePath)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(20), cfg.MaxUploadSizeMB)
	assert.Equal(t, "02/01/2006 15:04:05", cfg.OrderDateLayout)
	assert.Equal(t, 20, cfg.SummaryTopN)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_DRIVER=Postgres\nPORT=9000\nSUMMARY_TOP_N=5\n"), 0o600))
	t.Setenv("PORT", "9100")
	t.Setenv("DISTRIBUTION_SEED", "weekly")

	cfg, err := load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, 5, cfg.SummaryTopN)
	assert.Equal(t, "weekly", cfg.DistributionSeed)
}

func TestAllowedOrigins(t *testing.T) {
	cfg := Config{CORSAllowed: "https://a.example, https://b.example ,"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}
