package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromEnviron(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, "phrasebook.db", cfg.DBPath)
	assert.Equal(t, "media", cfg.MediaRoot)
	assert.Equal(t, "/media/", cfg.MediaURL)
	assert.Equal(t, "", cfg.Secret)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "cmudict.dict", cfg.DictPath)
	assert.Equal(t, 1024, cfg.TranscriptionCache)
	assert.Equal(t, 4, cfg.WarmWorkers)
}

func TestEnvironOverridesDotenv(t *testing.T) {
	cfg, err := FromEnviron(
		[]string{"API_KEY_SECRET=from-env", "DEBUG=true"},
		map[string]string{"API_KEY_SECRET": "from-file", "MEDIA_ROOT": "/srv/media"},
	)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Secret)
	assert.Equal(t, "/srv/media", cfg.MediaRoot)
	assert.True(t, cfg.Debug)
}

func TestLoadReadsEnvFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ".env", []byte("PHRASEBOOK_TEST_ONLY=1\nTRANSCRIPTION_CACHE=16\n"), 0o644))
	t.Setenv("TRANSCRIPTION_CACHE", "32")
	t.Setenv("WARM_WORKERS", "2")

	cfg, err := Load(fs, ".env")
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.TranscriptionCache)
	assert.Equal(t, 2, cfg.WarmWorkers)
}

func TestLoadMissingEnvFile(t *testing.T) {
	t.Setenv("PHRASEBOOK_ADDR", ":9999")
	cfg, err := Load(afero.NewMemMapFs(), ".env")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
}

func TestLoadBadValue(t *testing.T) {
	_, err := FromEnviron([]string{"WARM_WORKERS=many"}, nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := FromEnviron(nil, nil)
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	assert.ErrorContains(t, cfg.Validate(), "API_KEY_SECRET")

	cfg.Debug = true
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Secret = "abc"
	assert.NoError(t, cfg.Validate())

	cfg.TranscriptionCache = 0
	cfg.LogFormat = "xml"
	cfg.LogLevel = "loud"
	err := cfg.Validate()
	assert.ErrorContains(t, err, "TRANSCRIPTION_CACHE")
	assert.ErrorContains(t, err, "LOG_FORMAT")
	assert.ErrorContains(t, err, "loud")
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json"}
	log := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}
