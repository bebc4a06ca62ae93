package appconfig

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"debug": true,
		"profile": "crypto",
		"n8n": {"url": "http://n8n.local:5678", "apiKey": "secret-key", "timeout": 20},
		"coingecko": {"timeout": 5},
		"http": {"addr": ":9090"},
		"mcpInitTimeout": 3
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "crypto", cfg.ProfileName())
	assert.Equal(t, "http://n8n.local:5678", cfg.N8N.URL)
	assert.Equal(t, "secret-key", cfg.N8N.APIKey)
	assert.Equal(t, 20*time.Second, cfg.N8NTimeout())
	assert.Equal(t, DefaultCoinGeckoURL, cfg.CoinGecko.URL)
	assert.Equal(t, 5*time.Second, cfg.CoinGeckoTimeout())
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.MCPInitTimeoutDuration())
	assert.Equal(t, path, cfg.ConfigPath)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "profile: workflows\nn8n:\n  url: http://workflows:5678\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "workflows", cfg.ProfileName())
	assert.Equal(t, "http://workflows:5678", cfg.N8N.URL)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultProfile, cfg.ProfileName())
	assert.Equal(t, DefaultN8NURL, cfg.N8N.URL)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTP.Addr)
	assert.Zero(t, cfg.N8NTimeout())
	assert.Equal(t, 15*time.Second, cfg.CoinGeckoTimeout())
	assert.Equal(t, 60*time.Second, cfg.HTTPRequestTimeout())
	assert.Equal(t, 10*time.Second, cfg.MCPInitTimeoutDuration())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("N8N_API_KEY", "from-env")
	t.Setenv("TOOLHOST_TOKEN", "tok")
	path := writeFile(t, "config.json", `{"n8n": {"apiKey": "from-file"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.N8N.APIKey)
	assert.Equal(t, "tok", cfg.HTTP.Token)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.json"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "broken.json", `{ "n8n": [`))
	require.Error(t, err)

	_, err = Load(writeFile(t, "negative.json", `{"coingecko": {"timeout": -1}}`))
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := writeFile(t, ".env", "TOOLHOST_DOTENV_TEST=loaded\n")
	t.Cleanup(func() { _ = os.Unsetenv("TOOLHOST_DOTENV_TEST") })
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("TOOLHOST_DOTENV_TEST"))
}

func TestShowConfigMasksSecrets(t *testing.T) {
	cfg := Config{
		N8N:  N8N{URL: DefaultN8NURL, APIKey: "abcdefgh"},
		HTTP: HTTP{Addr: DefaultHTTPAddr, Token: "xyz"},
	}
	var out bytes.Buffer
	ShowConfig(&out, "config/config.json", cfg)

	text := out.String()
	assert.Contains(t, text, "Config file: config/config.json")
	assert.Contains(t, text, "ab****gh")
	assert.Contains(t, text, "****")
	assert.NotContains(t, text, "abcdefgh")
	assert.NotContains(t, text, "xyz")
	assert.Contains(t, text, "per operation")
}
