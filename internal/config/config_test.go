package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 80, cfg.Width)
	assert.Equal(t, 25, cfg.Height)
	assert.Equal(t, 20, cfg.Veins)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
seed: 7
width: 40
height: 30
tick_interval: 250ms
log_level: debug
api_port: 0
`))
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)
	assert.Equal(t, 20, cfg.Veins, "unset keys keep their defaults")
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Zero(t, cfg.APIPort)

	gen := cfg.GenConfig()
	assert.Equal(t, int64(7), gen.Seed)
	assert.Equal(t, 40, gen.Width)
	opts := cfg.Options()
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, gen, opts.Gen)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "colour: red\n",
		"tiny map":      "width: 5\n",
		"bad level":     "log_level: loud\n",
		"bad interval":  "tick_interval: soon\n",
		"zero interval": "tick_interval: 0s\n",
		"wrong type":    "workers: many\n",
		"big view":      "width: 40\nview_width: 50\n",
		"not yaml":      "width: [\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "underkeep.yaml")
	require.NoError(t, os.WriteFile(path, []byte("admin_key: from-file\nveins: 3\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.AdminKey)
	assert.Equal(t, 3, cfg.Veins)

	t.Setenv(AdminKeyEnv, "from-env")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AdminKey)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_NoPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Width, cfg.Width)
}
