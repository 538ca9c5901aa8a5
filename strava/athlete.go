package strava

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
)

func (g *Gender) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch Gender(s) {
	case Male, Female:
		*g = Gender(s)
		return nil
	}
	return errors.Errorf("unknown gender %q", s)
}

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

func (f *FriendshipStatus) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch FriendshipStatus(s) {
	case FriendshipPending, FriendshipAccepted, FriendshipBlocked:
		*f = FriendshipStatus(s)
		return nil
	}
	return errors.Errorf("unknown friendship status %q", s)
}

type MeasurementPreference string

const (
	Feet   MeasurementPreference = "feet"
	Meters MeasurementPreference = "meters"
)

func (m *MeasurementPreference) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch MeasurementPreference(s) {
	case Feet, Meters:
		*m = MeasurementPreference(s)
		return nil
	}
	return errors.Errorf("unknown measurement preference %q", s)
}

type Athlete struct {
	ID            int64   `json:"id"`
	FirstName     *string `json:"firstname,omitempty"`
	LastName      *string `json:"lastname,omitempty"`
	ProfileMedium *string `json:"profile_medium,omitempty"` // 62x62 pixel picture URL
	Profile       *string `json:"profile,omitempty"`        // 124x124 pixel picture URL
	City          *string `json:"city,omitempty"`
	State         *string `json:"state,omitempty"`
	Country       *string `json:"country,omitempty"`
	Sex           *Gender `json:"sex,omitempty"`

	// Friend is whether the logged-in athlete follows this athlete, Follower
	// the reverse.
	Friend   *FriendshipStatus `json:"friend,omitempty"`
	Follower *FriendshipStatus `json:"follower,omitempty"`

	Summit                *bool                  `json:"summit,omitempty"`
	CreatedAt             *time.Time             `json:"created_at,omitempty"`
	UpdatedAt             *time.Time             `json:"updated_at,omitempty"`
	FollowerCount         *int                   `json:"follower_count,omitempty"`
	FriendCount           *int                   `json:"friend_count,omitempty"`
	MutualFriendCount     *int                   `json:"mutual_friend_count,omitempty"`
	MeasurementPreference *MeasurementPreference `json:"measurement_preference,omitempty"`
	// Email is undocumented but still returned for some accounts.
	Email  *string  `json:"email,omitempty"`
	FTP    *int     `json:"ftp,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

// CurrentAthlete returns the athlete owning the access token.
func (c *Client) CurrentAthlete(ctx context.Context, auth Context) (Athlete, error) {
	var athlete Athlete
	if err := c.getJSON(ctx, "current athlete", "/athlete", auth, &athlete); err != nil {
		return athlete, err
	}
	return athlete, nil
}
