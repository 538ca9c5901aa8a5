package tokens

import (
	"time"

	"github.com/jinzhu/gorm"

	"github.com/matematik7/strava-go/strava"
)

// StoredLogin is one row per login for an athlete. The newest row wins.
type StoredLogin struct {
	gorm.Model

	AthleteID int64 `gorm:"index"`

	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

func (s StoredLogin) Login() strava.Login {
	return strava.NewLogin(
		strava.AccessToken(s.AccessToken),
		strava.RefreshToken(s.RefreshToken),
		s.ExpiresAt,
	)
}

func newStoredLogin(athleteID int64, login strava.Login) StoredLogin {
	return StoredLogin{
		AthleteID:    athleteID,
		AccessToken:  login.AccessToken.String(),
		RefreshToken: login.RefreshToken.String(),
		ExpiresAt:    login.ExpiresAt(),
	}
}
