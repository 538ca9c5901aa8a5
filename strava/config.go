package strava

import (
	"github.com/asaskevich/govalidator"
	"github.com/pkg/errors"
)

// Config identifies the registered API application.
type Config struct {
	ClientID     int64  `valid:"required"`
	ClientSecret string `valid:"required"`
}

func (c Config) Validate() error {
	if _, err := govalidator.ValidateStruct(c); err != nil {
		return errors.Wrap(err, "invalid strava config")
	}
	return nil
}
