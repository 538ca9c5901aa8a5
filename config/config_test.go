package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matematik7/strava-go/strava"
)

func setenv(t *testing.T, key, value string) {
	previous, existed := os.LookupEnv(key)
	require.NoError(t, os.Setenv(key, value))
	t.Cleanup(func() {
		if existed {
			os.Setenv(key, previous)
		} else {
			os.Unsetenv(key)
		}
	})
}

func unsetenv(t *testing.T, keys ...string) {
	for _, key := range keys {
		key := key
		previous, existed := os.LookupEnv(key)
		require.NoError(t, os.Unsetenv(key))
		if existed {
			t.Cleanup(func() { os.Setenv(key, previous) })
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetenv(t,
		"STRAVA_BASE_URL", "STRAVA_OAUTH_URL", "STRAVA_HOST", "STRAVA_PORT",
		"STRAVA_URL", "STRAVA_SCOPES", "STRAVA_LOG_LEVEL",
	)

	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, strava.DefaultBaseURL, settings.BaseURL)
	assert.Equal(t, strava.DefaultOAuthURL, settings.OAuthURL)
	assert.Equal(t, "localhost:3000", settings.Listen())
	assert.Equal(t, "http://localhost:3000/callback", settings.RedirectURL())
	assert.Equal(t, []string{"read", "activity:read_all"}, settings.Scopes)
	assert.Equal(t, "info", settings.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	setenv(t, "STRAVA_CLIENT_ID", "62161")
	setenv(t, "STRAVA_CLIENT_SECRET", "secret")
	setenv(t, "STRAVA_ACCESS_TOKEN", "foobar")
	setenv(t, "STRAVA_PORT", "8080")
	setenv(t, "STRAVA_LOG_LEVEL", "DEBUG")

	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, strava.Config{ClientID: 62161, ClientSecret: "secret"}, settings.Strava())
	assert.Equal(t, "foobar", settings.AccessToken)
	assert.Equal(t, "localhost:8080", settings.Listen())
	assert.Equal(t, "http://localhost:8080", settings.URL)
	assert.Equal(t, "debug", settings.LogLevel)
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, ioutil.WriteFile(envFile, []byte("STRAVA_REFRESH_TOKEN=eggspam\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("STRAVA_REFRESH_TOKEN") })

	settings, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "eggspam", settings.RefreshToken)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadInvalidLogLevel(t *testing.T) {
	setenv(t, "STRAVA_LOG_LEVEL", "loud")

	_, err := Load("")
	assert.Error(t, err)
}
