package tokens

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matematik7/strava-go/strava"
)

type memoryStore struct {
	logins []strava.Login
}

func (m *memoryStore) Load(ctx context.Context) (strava.Login, error) {
	if len(m.logins) == 0 {
		return strava.Login{}, ErrNoLogin
	}
	return m.logins[len(m.logins)-1], nil
}

func (m *memoryStore) Save(ctx context.Context, login strava.Login) error {
	m.logins = append(m.logins, login)
	return nil
}

var testConfig = strava.Config{ClientID: 1, ClientSecret: "secret"}

func newTestSource(t *testing.T, store Store, handler http.HandlerFunc) *Source {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger, _ := test.NewNullLogger()
	client := strava.New(strava.WithOAuthURL(server.URL), strava.WithLogger(logger))
	return NewSource(store, client, testConfig, logger)
}

func TestSourceKeepsFreshLogin(t *testing.T) {
	store := &memoryStore{}
	store.Save(context.Background(), strava.NewLogin("fresh", "r", time.Now().Add(time.Hour)))

	source := newTestSource(t, store, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected refresh request")
	})

	auth, err := source.Context(context.Background())
	require.NoError(t, err)
	assert.Equal(t, strava.AccessToken("fresh"), auth.AccessToken)
	assert.Len(t, store.logins, 1)
}

func TestSourceRefreshesExpiringLogin(t *testing.T) {
	store := &memoryStore{}
	store.Save(context.Background(), strava.NewLogin("old", "old-refresh", time.Now().Add(5*time.Minute)))

	expiresAt := time.Now().Add(6 * time.Hour).Unix()
	source := newTestSource(t, store, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token", r.URL.Path)
		w.Write([]byte(`{"access_token":"new","refresh_token":"new-refresh","expires_at":` +
			strconv.FormatInt(expiresAt, 10) + `}`))
	})

	auth, err := source.Context(context.Background())
	require.NoError(t, err)
	assert.Equal(t, strava.AccessToken("new"), auth.AccessToken)
	require.Len(t, store.logins, 2)
	assert.Equal(t, strava.RefreshToken("new-refresh"), store.logins[1].RefreshToken)
}

func TestSourceRefreshFailure(t *testing.T) {
	store := &memoryStore{}
	store.Save(context.Background(), strava.NewLogin("old", "old-refresh", time.Now().Add(-time.Minute)))

	source := newTestSource(t, store, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := source.Context(context.Background())
	var transportErr *strava.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusBadRequest, transportErr.StatusCode)
	assert.Len(t, store.logins, 1)
}

func TestSourceKeepsLoginWhenRefreshHasNoTokens(t *testing.T) {
	store := &memoryStore{}
	store.Save(context.Background(), strava.NewLogin("old", "old-refresh", time.Now().Add(-time.Minute)))

	source := newTestSource(t, store, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := source.Context(context.Background())
	var decodeErr *strava.DeserializationError
	require.True(t, errors.As(err, &decodeErr))
	require.Len(t, store.logins, 1)
	assert.Equal(t, strava.RefreshToken("old-refresh"), store.logins[0].RefreshToken)
}

func TestSourceEmptyStore(t *testing.T) {
	source := newTestSource(t, &memoryStore{}, func(w http.ResponseWriter, r *http.Request) {})

	_, err := source.Context(context.Background())
	assert.Equal(t, ErrNoLogin, err)
}
