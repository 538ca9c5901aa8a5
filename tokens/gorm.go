package tokens

import (
	"context"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"

	"github.com/matematik7/strava-go/strava"
)

// GormStore keeps logins in a SQL database. When a login carries an athlete
// summary its ID is recorded, later refreshes inherit it.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(DB *gorm.DB) *GormStore {
	return &GormStore{DB: DB}
}

func (s *GormStore) Migrate() error {
	if err := s.DB.AutoMigrate(&StoredLogin{}).Error; err != nil {
		return errors.Wrap(err, "could not migrate stored logins")
	}
	return nil
}

func (s *GormStore) latest(ctx context.Context) (StoredLogin, error) {
	var stored StoredLogin
	query := s.DB.Order("id desc").First(&stored)
	if query.RecordNotFound() {
		return stored, ErrNoLogin
	} else if query.Error != nil {
		return stored, errors.Wrap(query.Error, "stored login db read")
	}
	return stored, nil
}

func (s *GormStore) Load(ctx context.Context) (strava.Login, error) {
	stored, err := s.latest(ctx)
	if err != nil {
		return strava.Login{}, err
	}
	return stored.Login(), nil
}

func (s *GormStore) Save(ctx context.Context, login strava.Login) error {
	var athleteID int64
	if login.Athlete != nil {
		athleteID = login.Athlete.ID
	} else if previous, err := s.latest(ctx); err == nil {
		athleteID = previous.AthleteID
	} else if err != ErrNoLogin {
		return err
	}

	stored := newStoredLogin(athleteID, login)
	if err := s.DB.Create(&stored).Error; err != nil {
		return errors.Wrap(err, "stored login db write")
	}
	return nil
}
