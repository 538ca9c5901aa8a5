package strava

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultExpiryTimeout is the window used by WillExpireSoon when no timeout
// is given.
const DefaultExpiryTimeout = 10 * time.Minute

type AccessToken string

func (t AccessToken) String() string {
	return string(t)
}

type RefreshToken string

func (t RefreshToken) String() string {
	return string(t)
}

// Login is the result of a token exchange. Callers are responsible for
// persisting it; Refresh returns a new Login rather than updating this one.
type Login struct {
	AccessToken  AccessToken
	RefreshToken RefreshToken
	// Athlete is only returned by the authorization code exchange.
	Athlete *Athlete

	expiresAt int64
}

func NewLogin(accessToken AccessToken, refreshToken RefreshToken, expiresAt time.Time) Login {
	return Login{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		expiresAt:    expiresAt.Unix(),
	}
}

type loginJSON struct {
	AccessToken  AccessToken  `json:"access_token"`
	RefreshToken RefreshToken `json:"refresh_token"`
	ExpiresAt    int64        `json:"expires_at"`
	Athlete      *Athlete     `json:"athlete,omitempty"`
}

func (l Login) MarshalJSON() ([]byte, error) {
	return json.Marshal(loginJSON{
		AccessToken:  l.AccessToken,
		RefreshToken: l.RefreshToken,
		ExpiresAt:    l.expiresAt,
		Athlete:      l.Athlete,
	})
}

func (l *Login) UnmarshalJSON(data []byte) error {
	var raw loginJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.AccessToken == "" || raw.RefreshToken == "" || raw.ExpiresAt == 0 {
		return errors.New("login requires access_token, refresh_token and expires_at")
	}
	*l = Login{
		AccessToken:  raw.AccessToken,
		RefreshToken: raw.RefreshToken,
		Athlete:      raw.Athlete,
		expiresAt:    raw.ExpiresAt,
	}
	return nil
}

func (l Login) ExpiresAt() time.Time {
	return time.Unix(l.expiresAt, 0)
}

// IsExpired reports whether the access token has expired.
func (l Login) IsExpired() bool {
	return l.IsExpiredAt(time.Now())
}

// IsExpiredAt reports whether the access token is expired at now. A token
// expiring exactly at now is still valid.
func (l Login) IsExpiredAt(now time.Time) bool {
	return l.expiresAt < now.Unix()
}

// WillExpireSoon reports whether the access token expires within timeout.
// A zero timeout means DefaultExpiryTimeout.
func (l Login) WillExpireSoon(timeout time.Duration) bool {
	return l.WillExpireSoonAt(time.Now(), timeout)
}

func (l Login) WillExpireSoonAt(now time.Time, timeout time.Duration) bool {
	if timeout == 0 {
		timeout = DefaultExpiryTimeout
	}
	return l.WillExpireWithinAt(now, timeout)
}

// WillExpireWithin is WillExpireSoon without the default, a zero timeout
// asks whether the token expires before now.
func (l Login) WillExpireWithin(timeout time.Duration) bool {
	return l.WillExpireWithinAt(time.Now(), timeout)
}

func (l Login) WillExpireWithinAt(now time.Time, timeout time.Duration) bool {
	deadline := time.Unix(now.Unix(), 0).Add(timeout)
	return l.ExpiresAt().Before(deadline)
}

type tokenRequest struct {
	ClientID     int64  `json:"client_id,string"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	GrantType    string `json:"grant_type"`
}

// Login exchanges the code returned from the OAuth authorization redirect
// for a Login.
func (c *Client) Login(ctx context.Context, code string, config Config) (Login, error) {
	if err := config.Validate(); err != nil {
		return Login{}, err
	}

	var login Login
	err := c.postJSON(ctx, "login", c.oauthURL+"/token", tokenRequest{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Code:         code,
		GrantType:    "authorization_code",
	}, &login)
	if err != nil {
		return Login{}, err
	}
	return login, nil
}

// Refresh exchanges a refresh token for a new Login.
func (c *Client) Refresh(ctx context.Context, token RefreshToken, config Config) (Login, error) {
	if err := config.Validate(); err != nil {
		return Login{}, err
	}

	var login Login
	err := c.postJSON(ctx, "refresh token", c.oauthURL+"/token", tokenRequest{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RefreshToken: string(token),
		GrantType:    "refresh_token",
	}, &login)
	if err != nil {
		return Login{}, err
	}
	return login, nil
}

type deauthorizeRequest struct {
	AccessToken string `json:"access_token"`
}

// Deauthorize revokes the application's access for the athlete owning
// token.
func (c *Client) Deauthorize(ctx context.Context, token AccessToken) error {
	return c.postJSON(ctx, "deauthorize", c.oauthURL+"/deauthorize", deauthorizeRequest{
		AccessToken: string(token),
	}, nil)
}

// AuthorizationURL returns the page the athlete must visit to grant access.
// Strava redirects to redirectURI with the code and state query parameters.
func (c *Client) AuthorizationURL(config Config, redirectURI, state string, scopes ...string) string {
	query := url.Values{}
	query.Set("client_id", strconv.FormatInt(config.ClientID, 10))
	query.Set("redirect_uri", redirectURI)
	query.Set("response_type", "code")
	query.Set("approval_prompt", "auto")
	if state != "" {
		query.Set("state", state)
	}
	if len(scopes) > 0 {
		query.Set("scope", strings.Join(scopes, ","))
	}
	return c.oauthURL + "/authorize?" + query.Encode()
}
