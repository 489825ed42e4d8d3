package config

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServer_Defaults(t *testing.T) {
	t.Setenv("API_URL", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := LoadServer()

	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.False(t, cfg.Production())
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
	assert.Equal(t, []string{"API_URL"}, cfg.Missing())
}

func TestLoadServer_FromEnv(t *testing.T) {
	t.Setenv("API_URL", "https://api.example/")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("METRICS_ADDR", ":9090")

	cfg := LoadServer()

	assert.Equal(t, "https://api.example", cfg.APIURL)
	assert.True(t, cfg.Production())
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Empty(t, cfg.Missing())
}

func TestLoadCLI(t *testing.T) {
	t.Setenv("RECRUIT_BFF_URL", "")
	t.Setenv("RECRUIT_DB_PATH", "/tmp/recruit.db")
	t.Setenv("RECRUIT_TOKEN_KEY", "")

	cfg := LoadCLI()

	assert.Equal(t, "http://localhost:3000", cfg.BFFURL)
	assert.Equal(t, "/tmp/recruit.db", cfg.DBPath)
	assert.Equal(t, []string{"RECRUIT_TOKEN_KEY"}, cfg.Missing())
}

func TestParseLevel_Invalid(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud"))
}

func TestSaveEnvFile_MergesAndRestricts(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	_, err := SaveEnvFile(map[string]string{"RECRUIT_BFF_URL": "http://old", "LOG_LEVEL": "debug"})
	require.NoError(t, err)
	path, err := SaveEnvFile(map[string]string{"RECRUIT_BFF_URL": "http://new"})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	values, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "http://new", values["RECRUIT_BFF_URL"])
	assert.Equal(t, "debug", values["LOG_LEVEL"])
}

func TestGenerateTokenKey(t *testing.T) {
	a, err := GenerateTokenKey()
	require.NoError(t, err)
	b, err := GenerateTokenKey()
	require.NoError(t, err)

	assert.Len(t, a, 44)
	assert.NotEqual(t, a, b)
}
