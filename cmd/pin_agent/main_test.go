package main

import (
	"bytes"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pin-pipeline/internal/config"
	"github.com/jonathan/pin-pipeline/internal/server"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/pins")
	t.Setenv("BRAND_NAME", "SnackCo")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("TREND_SOURCE", "search_index")
	t.Setenv("SERPAPI_KEY", "serp")
	t.Setenv("SHOPIFY_STORE_DOMAIN", "")
	t.Setenv("DRY_RUN", "")
}

func setFlag(t *testing.T, name, value string) {
	t.Helper()
	require.NoError(t, runCommand.Flags().Set(name, value))
	t.Cleanup(func() {
		f := runCommand.Flags().Lookup(name)
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

func TestLoadRunConfig_RequiresPublishingUnlessDryRun(t *testing.T) {
	setMinimalEnv(t)

	_, err := loadRunConfig(runCommand)
	require.Error(t, err)
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "ShopifyStoreDomain", cfgErr.Field)
}

func TestLoadRunConfig_FlagsOverride(t *testing.T) {
	setMinimalEnv(t)
	setFlag(t, "dry-run", "true")
	setFlag(t, "allow-reuse", "true")

	cfg, err := loadRunConfig(runCommand)
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.AllowTopicReuse)
	assert.Equal(t, "SnackCo", cfg.BrandName)
}

func TestParseScheduledTime(t *testing.T) {
	got, err := parseScheduledTime("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseScheduledTime("2026-10-14T09:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC), *got)

	_, err = parseScheduledTime("tomorrow")
	assert.Error(t, err)
}

func TestProviderConfig(t *testing.T) {
	env := map[string]string{"CANVA_CLIENT_ID": "cid", "CANVA_CLIENT_SECRET": "secret"}
	getenv := func(k string) string { return env[k] }

	cfg, pkce, err := providerConfig("canva", "https://localhost/cb", getenv)
	require.NoError(t, err)
	assert.True(t, pkce)
	assert.Equal(t, "cid", cfg.ClientID)

	_, _, err = providerConfig("pinterest", "https://localhost/cb", getenv)
	assert.ErrorContains(t, err, "PINTEREST_CLIENT_ID")

	_, _, err = providerConfig("tiktok", "", getenv)
	assert.Error(t, err)
}

func TestTokenOAuth_PrintsAuthURL(t *testing.T) {
	t.Setenv("PINTEREST_CLIENT_ID", "pid")
	t.Setenv("PINTEREST_CLIENT_SECRET", "psecret")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "oauth", "pinterest", "--redirect-url", "https://localhost/cb"})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	u, err := url.Parse(lines[len(lines)-1])
	require.NoError(t, err)
	assert.Equal(t, "www.pinterest.com", u.Host)
	assert.Equal(t, "pid", u.Query().Get("client_id"))
	assert.Equal(t, "https://localhost/cb", u.Query().Get("redirect_uri"))
	assert.NotContains(t, out.String(), "Verifier")
}

func TestTokenTrigger(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-for-jwt-signing-minimum-32-bytes")
	t.Setenv("JWT_EXPIRATION_HOURS", "2")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "trigger", "--subject", "cron"})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())

	cfg, err := config.Load("")
	require.NoError(t, err)
	jwtConfig, err := cfg.TriggerAuth()
	require.NoError(t, err)
	assert.Equal(t, 2, jwtConfig.ExpirationHours)
	claims, err := server.NewJWTService(jwtConfig).ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "cron", claims.Subject)
}

func TestTokenTrigger_RejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	rootCmd.SetArgs([]string{"token", "trigger"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "JWTSecret", cfgErr.Field)
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	rootCmd.SetArgs([]string{"migrate", "up"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestMigrate_RejectsUnknownDirection(t *testing.T) {
	rootCmd.SetArgs([]string{"migrate", "sideways"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.Error(t, rootCmd.Execute())
}
