package strava

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/twpayne/go-polyline"
)

type ActivityType string

const (
	Ride            ActivityType = "Ride"
	Run             ActivityType = "Run"
	Swim            ActivityType = "Swim"
	Hike            ActivityType = "Hike"
	Walk            ActivityType = "Walk"
	AlpineSki       ActivityType = "AlpineSki"
	BackcountrySki  ActivityType = "BackcountrySki"
	Canoeing        ActivityType = "Canoeing"
	Crossfit        ActivityType = "Crossfit"
	EBikeRide       ActivityType = "EBikeRide"
	Elliptical      ActivityType = "Elliptical"
	IceSkate        ActivityType = "IceSkate"
	InlineSkate     ActivityType = "InlineSkate"
	Kayaking        ActivityType = "Kayaking"
	Kitesurf        ActivityType = "Kitesurf"
	NordicSki       ActivityType = "NordicSki"
	RockClimbing    ActivityType = "RockClimbing"
	RollerSki       ActivityType = "RollerSki"
	Rowing          ActivityType = "Rowing"
	Snowboard       ActivityType = "Snowboard"
	Snowshoe        ActivityType = "Snowshoe"
	StairStepper    ActivityType = "StairStepper"
	StandUpPaddling ActivityType = "StandUpPaddling"
	Surfing         ActivityType = "Surfing"
	WeightTraining  ActivityType = "WeightTraining"
	Windsurf        ActivityType = "Windsurf"
	Workout         ActivityType = "Workout"
	Yoga            ActivityType = "Yoga"

	ActivityTypeUnknown ActivityType = "Unknown"
)

var activityTypes = map[ActivityType]bool{
	Ride: true, Run: true, Swim: true, Hike: true, Walk: true,
	AlpineSki: true, BackcountrySki: true, Canoeing: true, Crossfit: true,
	EBikeRide: true, Elliptical: true, IceSkate: true, InlineSkate: true,
	Kayaking: true, Kitesurf: true, NordicSki: true, RockClimbing: true,
	RollerSki: true, Rowing: true, Snowboard: true, Snowshoe: true,
	StairStepper: true, StandUpPaddling: true, Surfing: true,
	WeightTraining: true, Windsurf: true, Workout: true, Yoga: true,
}

// UnmarshalJSON maps types Strava added after this list was written to
// ActivityTypeUnknown.
func (t *ActivityType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if activityTypes[ActivityType(s)] {
		*t = ActivityType(s)
	} else {
		*t = ActivityTypeUnknown
	}
	return nil
}

// LatLng is a [latitude, longitude] pair.
type LatLng [2]float64

func (l LatLng) Latitude() float64 {
	return l[0]
}

func (l LatLng) Longitude() float64 {
	return l[1]
}

// newLatLng returns nil for the empty array Strava sends when an activity
// has no coordinates.
func newLatLng(values []float64) (*LatLng, error) {
	switch len(values) {
	case 0:
		return nil, nil
	case 2:
		return &LatLng{values[0], values[1]}, nil
	default:
		return nil, errors.Errorf("expected [latitude, longitude], got %v values", len(values))
	}
}

// PolylineMap holds polylines encoded with the Google polyline algorithm.
type PolylineMap struct {
	ID              string  `json:"id"`
	Polyline        *string `json:"polyline,omitempty"`
	SummaryPolyline *string `json:"summary_polyline,omitempty"`
}

// Coords decodes the most detailed polyline available into
// [latitude, longitude] pairs.
func (m PolylineMap) Coords() ([][]float64, error) {
	encoded := m.Polyline
	if encoded == nil || *encoded == "" {
		encoded = m.SummaryPolyline
	}
	if encoded == nil || *encoded == "" {
		return nil, nil
	}

	coords, _, err := polyline.DecodeCoords([]byte(*encoded))
	if err != nil {
		return nil, errors.Wrap(err, "could not decode polyline")
	}
	return coords, nil
}

type Activity struct {
	ID                 int64         `json:"id"`
	UploadID           int64         `json:"upload_id"`
	Type               *ActivityType `json:"type,omitempty"`
	Name               *string       `json:"name,omitempty"`
	Distance           *float64      `json:"distance,omitempty"`     // meters
	MovingTime         *int          `json:"moving_time,omitempty"`  // seconds
	ElapsedTime        *int          `json:"elapsed_time,omitempty"` // seconds
	TotalElevationGain *float64      `json:"total_elevation_gain,omitempty"`
	ElevHigh           *float64      `json:"elev_high,omitempty"`
	ElevLow            *float64      `json:"elev_low,omitempty"`
	StartDate          *time.Time    `json:"start_date,omitempty"`
	StartDateLocal     *time.Time    `json:"start_date_local,omitempty"`
	Timezone           *string       `json:"timezone,omitempty"`
	StartLatLng        *LatLng       `json:"start_latlng,omitempty"`
	EndLatLng          *LatLng       `json:"end_latlng,omitempty"`
	AchievementCount   *int          `json:"achievement_count,omitempty"`
	KudosCount         *int          `json:"kudos_count,omitempty"`
	CommentCount       *int          `json:"comment_count,omitempty"`
	AthleteCount       *int          `json:"athlete_count,omitempty"`
	PhotoCount         *int          `json:"photo_count,omitempty"` // Instagram only
	TotalPhotoCount    *int          `json:"total_photo_count,omitempty"`
	Map                *PolylineMap  `json:"map,omitempty"`
	Trainer            *bool         `json:"trainer,omitempty"`
	Commute            *bool         `json:"commute,omitempty"`
	Manual             *bool         `json:"manual,omitempty"`
	Private            *bool         `json:"private,omitempty"`
	Flagged            *bool         `json:"flagged,omitempty"`
	WorkoutType        *int          `json:"workout_type,omitempty"`
	AverageSpeed       *float64      `json:"average_speed,omitempty"` // meters per second
	MaxSpeed           *float64      `json:"max_speed,omitempty"`
	HasKudoed          *bool         `json:"has_kudoed,omitempty"`
	GearID             *string       `json:"gear_id,omitempty"`

	// Rides only.
	Kilojoules           *float64 `json:"kilojoules,omitempty"`
	AverageWatts         *float64 `json:"average_watts,omitempty"`
	DeviceWatts          *bool    `json:"device_watts,omitempty"` // false if estimated
	MaxWatts             *int     `json:"max_watts,omitempty"`
	WeightedAverageWatts *int     `json:"weighted_average_watts,omitempty"`
}

func (a *Activity) UnmarshalJSON(data []byte) error {
	type activity Activity
	var decoded activity
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	var coords struct {
		StartLatLng []float64 `json:"start_latlng"`
		EndLatLng   []float64 `json:"end_latlng"`
	}
	if err := json.Unmarshal(data, &coords); err != nil {
		return err
	}

	var err error
	if decoded.StartLatLng, err = newLatLng(coords.StartLatLng); err != nil {
		return errors.Wrap(err, "start_latlng")
	}
	if decoded.EndLatLng, err = newLatLng(coords.EndLatLng); err != nil {
		return errors.Wrap(err, "end_latlng")
	}

	*a = Activity(decoded)
	return nil
}

// LatestActivities returns the most recent activities of the logged in
// athlete.
func (c *Client) LatestActivities(ctx context.Context, auth Context) ([]Activity, error) {
	var activities []Activity
	if err := c.getJSON(ctx, "latest activities", "/athlete/activities", auth, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// ActivitiesBefore returns activities that started before t.
func (c *Client) ActivitiesBefore(ctx context.Context, auth Context, t time.Time) ([]Activity, error) {
	pagination := DefaultPagination()
	pagination.Before = t.Unix()
	return c.ListActivities(ctx, auth, pagination)
}

// ActivitiesAfter returns activities that started after t.
func (c *Client) ActivitiesAfter(ctx context.Context, auth Context, t time.Time) ([]Activity, error) {
	pagination := DefaultPagination()
	pagination.After = t.Unix()
	return c.ListActivities(ctx, auth, pagination)
}

func (c *Client) ListActivities(ctx context.Context, auth Context, pagination Pagination) ([]Activity, error) {
	var activities []Activity
	if err := c.getPaginatedJSON(ctx, "list activities", "/athlete/activities", auth, pagination, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

func (c *Client) Activity(ctx context.Context, auth Context, id int64) (Activity, error) {
	var activity Activity
	if err := c.getJSON(ctx, "activity", fmt.Sprintf("/activities/%v", id), auth, &activity); err != nil {
		return activity, err
	}
	return activity, nil
}
