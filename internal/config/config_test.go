package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/coursechat/internal/llm"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 10, cfg.Chat.HistoryWindow)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Analytics.Enabled)
	assert.False(t, cfg.Catalog.OnlineFallback)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[llm]
model = "gemini-2.5-pro"
max_retries = 5

[chat]
company_name = "Acme Training"

[catalog]
online_fallback = true
`)
	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.LLM.MaxRetries)
	assert.Equal(t, "Acme Training", cfg.Chat.CompanyName)
	assert.True(t, cfg.Catalog.OnlineFallback)
	assert.Equal(t, llm.GeminiOpenAIEndpoint, cfg.LLM.Endpoint, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[server]\nport = 9000\n")
	t.Setenv("COURSECHAT_SERVER_PORT", "9100")
	t.Setenv("COURSECHAT_LOG_LEVEL", "debug")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(APIKeyEnv, "gemini-secret")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "gemini-secret", cfg.LLM.APIKey)

	t.Setenv("COURSECHAT_LLM_API_KEY", "prefixed-secret")
	cfg, err = Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "prefixed-secret", cfg.LLM.APIKey, "prefixed variable wins")
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad log format": "[log]\nformat = \"xml\"\n",
		"bad temperature": "[llm]\ntemperature = 3.0\n",
		"zero window":     "[chat]\nhistory_window = 0\n",
		"bad port":        "[server]\nport = 70000\n",
		"malformed toml":  "[llm\nmodel = \"x\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(New(), writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestMasked(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "AIzaSyExampleKey1234"
	cfg.Server.AdminToken = "abc"

	masked := cfg.Masked()
	assert.Equal(t, "****1234", masked.LLM.APIKey)
	assert.Equal(t, "****", masked.Server.AdminToken)
	assert.Equal(t, "AIzaSyExampleKey1234", cfg.LLM.APIKey, "original untouched")
}

func TestWriteDefault_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false), "refuses to overwrite")
	require.NoError(t, WriteDefault(path, true))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, Default().LLM, cfg.LLM)
	assert.Equal(t, Default().Catalog, cfg.Catalog)
}

func TestBindFlags_OverrideFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "warn"
format = "json"
`)
	t.Setenv("COURSECHAT_LOG_LEVEL", "error")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-level", "", "")
	fs.String("log-format", "", "")
	require.NoError(t, fs.Parse([]string{"--log-level", "debug"}))

	v := New()
	require.NoError(t, BindFlags(v, fs))
	cfg, err := Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format, "unset flags leave the file value alone")
}
