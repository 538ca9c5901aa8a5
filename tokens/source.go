// Package tokens persists strava logins and keeps them fresh.
package tokens

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/matematik7/strava-go/strava"
)

var ErrNoLogin = errors.New("no stored strava login, run the login command first")

type Store interface {
	Load(ctx context.Context) (strava.Login, error)
	Save(ctx context.Context, login strava.Login) error
}

// Refresher is the part of strava.Client that Source needs.
type Refresher interface {
	Refresh(ctx context.Context, token strava.RefreshToken, config strava.Config) (strava.Login, error)
}

// Source hands out credentials from a Store, refreshing and saving the login
// when it is about to expire.
type Source struct {
	Store   Store
	Client  Refresher
	Config  strava.Config
	Timeout time.Duration
	Log     logrus.FieldLogger
}

func NewSource(store Store, client Refresher, config strava.Config, log logrus.FieldLogger) *Source {
	return &Source{
		Store:   store,
		Client:  client,
		Config:  config,
		Timeout: strava.DefaultExpiryTimeout,
		Log:     log,
	}
}

// Login returns a stored login that is valid for at least Timeout.
func (s *Source) Login(ctx context.Context) (strava.Login, error) {
	login, err := s.Store.Load(ctx)
	if err != nil {
		return strava.Login{}, err
	}

	if !login.WillExpireSoon(s.Timeout) {
		return login, nil
	}

	s.Log.WithField("expires_at", login.ExpiresAt()).Info("refreshing strava login")
	refreshed, err := s.Client.Refresh(ctx, login.RefreshToken, s.Config)
	if err != nil {
		return strava.Login{}, errors.Wrap(err, "refresh token")
	}

	if err := s.Store.Save(ctx, refreshed); err != nil {
		return strava.Login{}, err
	}
	return refreshed, nil
}

func (s *Source) Context(ctx context.Context) (strava.Context, error) {
	login, err := s.Login(ctx)
	if err != nil {
		return strava.Context{}, err
	}
	return strava.Context{AccessToken: login.AccessToken}, nil
}
