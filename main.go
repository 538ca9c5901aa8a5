package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/evalphobia/logrus_sentry"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/matematik7/strava-go/config"
	"github.com/matematik7/strava-go/strava"
	"github.com/matematik7/strava-go/tokens"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var NoCredentialsError = errors.New("no credentials, set STRAVA_ACCESS_TOKEN or STRAVA_DATABASE_URL")

type App struct {
	Settings config.Settings
	Log      *logrus.Logger
	Client   *strava.Client
	Store    tokens.Store
}

func (a *App) Configure(envFile string) error {
	settings, err := config.Load(envFile)
	if err != nil {
		return err
	}
	a.Settings = settings

	a.Log = logrus.New()
	a.Log.Out = os.Stderr
	level, err := logrus.ParseLevel(settings.LogLevel)
	if err != nil {
		return errors.Wrap(err, "could not parse log level")
	}
	a.Log.SetLevel(level)

	if settings.SentryDSN != "" {
		hook, err := logrus_sentry.NewSentryHook(settings.SentryDSN, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return errors.Wrap(err, "could not init sentry hook")
		}
		a.Log.AddHook(hook)
	}

	a.Client = strava.New(
		strava.WithBaseURL(settings.BaseURL),
		strava.WithOAuthURL(settings.OAuthURL),
		strava.WithHTTPClient(newHTTPClient()),
		strava.WithLogger(a.Log),
	)

	if settings.DatabaseURL != "" {
		DB, err := gorm.Open("postgres", settings.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "could not open db")
		}
		store := tokens.NewGormStore(DB)
		if err := store.Migrate(); err != nil {
			return err
		}
		a.Store = store
	}

	return nil
}

// Credentials prefers an access token from the environment and falls back
// to the stored login, refreshing it if needed.
func (a *App) Credentials(ctx context.Context) (strava.Context, error) {
	if a.Settings.AccessToken != "" {
		return strava.Context{AccessToken: strava.AccessToken(a.Settings.AccessToken)}, nil
	}
	if a.Store == nil {
		return strava.Context{}, NoCredentialsError
	}
	return tokens.NewSource(a.Store, a.Client, a.Settings.Strava(), a.Log).Context(ctx)
}

func (a *App) save(ctx context.Context, login strava.Login) error {
	if a.Store == nil {
		a.Log.Warn("STRAVA_DATABASE_URL is not set, login is not saved")
		return nil
	}
	return a.Store.Save(ctx, login)
}

func output(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not json encode output")
	}
	fmt.Println(string(out))
	return nil
}

func (a *App) LoginCommand(c *cli.Context) error {
	server := NewLoginServer(a.Client, a.Settings, a.Log)
	login, err := server.Run(context.Background())
	if err != nil {
		return err
	}
	if err := a.save(context.Background(), login); err != nil {
		return err
	}
	return output(login)
}

func (a *App) RefreshCommand(c *cli.Context) error {
	ctx := context.Background()

	token := strava.RefreshToken(a.Settings.RefreshToken)
	if token == "" {
		if a.Store == nil {
			return errors.New("no refresh token, set STRAVA_REFRESH_TOKEN or STRAVA_DATABASE_URL")
		}
		stored, err := a.Store.Load(ctx)
		if err != nil {
			return err
		}
		token = stored.RefreshToken
	}

	login, err := a.Client.Refresh(ctx, token, a.Settings.Strava())
	if err != nil {
		return err
	}
	if err := a.save(ctx, login); err != nil {
		return err
	}

	a.Log.WithFields(logrus.Fields{
		"expired":          login.IsExpired(),
		"will_expire_soon": login.WillExpireSoon(0),
	}).Info("refreshed login")
	return output(login)
}

func (a *App) WhoamiCommand(c *cli.Context) error {
	ctx := context.Background()
	auth, err := a.Credentials(ctx)
	if err != nil {
		return err
	}
	athlete, err := a.Client.CurrentAthlete(ctx, auth)
	if err != nil {
		return err
	}
	return output(athlete)
}

func (a *App) ActivitiesCommand(c *cli.Context) error {
	ctx := context.Background()
	auth, err := a.Credentials(ctx)
	if err != nil {
		return err
	}

	pagination := strava.Pagination{
		Before:  int64(c.Int("before")),
		After:   int64(c.Int("after")),
		Page:    c.Int("page"),
		PerPage: c.Int("per-page"),
	}

	var activities []strava.Activity
	if pagination == (strava.Pagination{}) {
		activities, err = a.Client.LatestActivities(ctx, auth)
	} else {
		activities, err = a.Client.ListActivities(ctx, auth, pagination)
	}
	if err != nil {
		return err
	}
	return output(activities)
}

func activityID(c *cli.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "expected activity id")
	}
	return id, nil
}

func (a *App) ActivityCommand(c *cli.Context) error {
	id, err := activityID(c)
	if err != nil {
		return err
	}

	ctx := context.Background()
	auth, err := a.Credentials(ctx)
	if err != nil {
		return err
	}
	activity, err := a.Client.Activity(ctx, auth, id)
	if err != nil {
		return err
	}
	return output(activity)
}

func (a *App) PointsCommand(c *cli.Context) error {
	id, err := activityID(c)
	if err != nil {
		return err
	}

	ctx := context.Background()
	auth, err := a.Credentials(ctx)
	if err != nil {
		return err
	}
	points, err := a.Client.ActivityPoints(ctx, auth, id)
	if err != nil {
		return err
	}
	return output(points)
}

func (a *App) DeauthorizeCommand(c *cli.Context) error {
	ctx := context.Background()
	auth, err := a.Credentials(ctx)
	if err != nil {
		return err
	}
	if err := a.Client.Deauthorize(ctx, auth.AccessToken); err != nil {
		return err
	}
	a.Log.Info("access revoked")
	return nil
}

func main() {
	app := &App{}

	cliApp := cli.NewApp()
	cliApp.Name = "strava"
	cliApp.Usage = "log into strava and read athlete data"
	cliApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "env",
			Value: ".env",
			Usage: "file with STRAVA_ environment variables",
		},
	}
	cliApp.Before = func(c *cli.Context) error {
		return app.Configure(c.String("env"))
	}
	cliApp.Commands = []cli.Command{
		{
			Name:   "login",
			Usage:  "authorize in a browser and store the login",
			Action: app.LoginCommand,
		},
		{
			Name:   "refresh",
			Usage:  "exchange the refresh token for a new login",
			Action: app.RefreshCommand,
		},
		{
			Name:   "whoami",
			Usage:  "show the logged in athlete",
			Action: app.WhoamiCommand,
		},
		{
			Name:  "activities",
			Usage: "list activities, latest first",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "before", Usage: "only activities before this epoch timestamp"},
				cli.IntFlag{Name: "after", Usage: "only activities after this epoch timestamp"},
				cli.IntFlag{Name: "page", Usage: "page number"},
				cli.IntFlag{Name: "per-page", Usage: "activities per page"},
			},
			Action: app.ActivitiesCommand,
		},
		{
			Name:      "activity",
			Usage:     "show one activity",
			ArgsUsage: "ID",
			Action:    app.ActivityCommand,
		},
		{
			Name:      "points",
			Usage:     "show the recorded points of an activity",
			ArgsUsage: "ID",
			Action:    app.PointsCommand,
		},
		{
			Name:   "deauthorize",
			Usage:  "revoke access for the logged in athlete",
			Action: app.DeauthorizeCommand,
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		if app.Log != nil {
			app.Log.Fatalln(err)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
	}
}
