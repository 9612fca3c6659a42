package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the loader at an empty data dir and clears variables that
// would leak in from the developer's shell.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{
		"AETHER_DATA_DIR", "AETHER_ENGINE", "AETHER_LOG_LEVEL",
		"AETHER_OPENAI_API_KEY", "OPENAI_API_KEY", "OPENAI_BASE_URL",
		"ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
	} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(Options{DataDir: dir})
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "aether.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "aether.log"), cfg.LogFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, EngineMemory, cfg.Engine)
	assert.True(t, cfg.FetchTitles)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Empty(t, cfg.OpenAI.APIKey)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	yaml := "engine: chrome\nlog_level: debug\nchrome:\n  headless: true\n  bin: /usr/bin/chromium\nopenai:\n  api_key: from-file\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(Options{DataDir: dir})
	require.NoError(t, err)

	assert.Equal(t, EngineChrome, cfg.Engine)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Chrome.Headless)
	assert.Equal(t, "/usr/bin/chromium", cfg.Chrome.Bin)
	assert.Equal(t, "from-file", cfg.OpenAI.APIKey)
}

func TestLoad_EnvBeatsFileAndDotenv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ANTHROPIC_API_KEY=from-dotenv\nOPENAI_API_KEY=dotenv-openai\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("openai:\n  api_key: from-file\n"), 0o600))
	t.Setenv("OPENAI_API_KEY", "from-env")

	cfg, err := Load(Options{DataDir: dir})
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "from-dotenv", cfg.Anthropic.APIKey)
	_, set := os.LookupEnv("ANTHROPIC_API_KEY")
	assert.False(t, set, ".env values must not leak into the process environment")
}

func TestLoad_FlagOverrides(t *testing.T) {
	dir := isolate(t)
	t.Setenv("AETHER_ENGINE", "chrome")

	cfg, err := Load(Options{DataDir: dir, Engine: EngineMemory, LogLevel: "warn", LogFile: filepath.Join(dir, "x.log")})
	require.NoError(t, err)

	assert.Equal(t, EngineMemory, cfg.Engine)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "x.log"), cfg.LogFile)
}

func TestLoad_ExplicitConfigFileMissing(t *testing.T) {
	dir := isolate(t)
	_, err := Load(Options{DataDir: dir, ConfigFile: filepath.Join(dir, "nope.yaml")})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Config{Engine: EngineChrome, LogLevel: "DEBUG"}.Validate())
	assert.Error(t, Config{Engine: "firefox", LogLevel: "info"}.Validate())
	assert.Error(t, Config{Engine: EngineMemory, LogLevel: "loud"}.Validate())
}
