// Package config reads the command line tool settings from the environment.
//
// Every key is read from a STRAVA_ prefixed variable, e.g. client_id from
// STRAVA_CLIENT_ID. Variables may also be put in a .env file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/matematik7/strava-go/strava"
)

type Settings struct {
	ClientID     int64
	ClientSecret string

	AccessToken  string
	RefreshToken string

	BaseURL  string `valid:"url"`
	OAuthURL string `valid:"url"`

	DatabaseURL string

	Host       string
	Port       int
	URL        string `valid:"url"`
	SessionKey string
	Scopes     []string

	LogLevel  string `valid:"in(panic|fatal|error|warn|info|debug|trace)"`
	SentryDSN string
}

func (s Settings) Strava() strava.Config {
	return strava.Config{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
	}
}

func (s Settings) Listen() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedirectURL is where strava sends the athlete after authorization.
func (s Settings) RedirectURL() string {
	return s.URL + "/callback"
}

// Load reads envFile if it exists and then the environment.
func Load(envFile string) (Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Settings{}, errors.Wrapf(err, "could not load %s", envFile)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("strava")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("base_url", strava.DefaultBaseURL)
	v.SetDefault("oauth_url", strava.DefaultOAuthURL)

	v.SetDefault("port", 3000)
	port := v.GetInt("port")

	v.SetDefault("host", "localhost")
	host := v.GetString("host")

	v.SetDefault("url", fmt.Sprintf("http://%s:%d", host, port))
	v.SetDefault("session_key", "SESSION_SECRET")
	v.SetDefault("scopes", "read,activity:read_all")
	v.SetDefault("log_level", "info")

	settings := Settings{
		ClientID:     v.GetInt64("client_id"),
		ClientSecret: v.GetString("client_secret"),
		AccessToken:  v.GetString("access_token"),
		RefreshToken: v.GetString("refresh_token"),
		BaseURL:      v.GetString("base_url"),
		OAuthURL:     v.GetString("oauth_url"),
		DatabaseURL:  v.GetString("database_url"),
		Host:         host,
		Port:         port,
		URL:          strings.TrimSuffix(v.GetString("url"), "/"),
		SessionKey:   v.GetString("session_key"),
		Scopes:       strings.Split(v.GetString("scopes"), ","),
		LogLevel:     strings.ToLower(v.GetString("log_level")),
		SentryDSN:    v.GetString("sentry_dsn"),
	}

	if _, err := govalidator.ValidateStruct(settings); err != nil {
		return settings, errors.Wrap(err, "invalid settings")
	}

	return settings, nil
}
