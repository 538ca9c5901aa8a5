package strava

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const pointStreamKeys = "time,distance,latlng,altitude"

type Stream struct {
	Type         string              `json:"type"`
	SeriesType   string              `json:"series_type"`
	Resolution   string              `json:"resolution"`
	OriginalSize int                 `json:"original_size"`
	Data         jsoniter.RawMessage `json:"data"`
}

// Point is one sample of a recorded activity. TimeOffset is in seconds from
// the start, Distance in meters from the start.
type Point struct {
	TimeOffset int
	Latitude   float64
	Longitude  float64
	Altitude   float64
	Distance   float64
}

// ActivityStreams returns the raw streams for keys, e.g. "time,latlng".
func (c *Client) ActivityStreams(ctx context.Context, auth Context, id int64, keys string) ([]Stream, error) {
	var streams []Stream
	path := fmt.Sprintf("/activities/%v/streams?keys=%v&key_by_type=false", id, keys)
	if err := c.getJSON(ctx, "activity streams", path, auth, &streams); err != nil {
		return nil, err
	}
	return streams, nil
}

// ActivityPoints merges the time, distance, latlng and altitude streams of
// an activity into points. All streams must be high resolution and of the
// same size.
func (c *Client) ActivityPoints(ctx context.Context, auth Context, id int64) ([]Point, error) {
	streams, err := c.ActivityStreams(ctx, auth, id, pointStreamKeys)
	if err != nil {
		return nil, err
	}
	return mergeStreams(streams)
}

func mergeStreams(streams []Stream) ([]Point, error) {
	var points []Point
	for _, stream := range streams {
		if stream.Resolution != "high" {
			return nil, errors.Errorf("expected high resolution %v stream, got %v", stream.Type, stream.Resolution)
		}
		if stream.OriginalSize < 0 {
			return nil, errors.Errorf("negative original size %v for %v stream", stream.OriginalSize, stream.Type)
		}
		if points == nil {
			points = make([]Point, stream.OriginalSize)
		} else if len(points) != stream.OriginalSize {
			return nil, errors.Errorf("expected original size %v, got %v", len(points), stream.OriginalSize)
		}

		if err := stream.fill(points); err != nil {
			return nil, errors.Wrapf(err, "%v stream", stream.Type)
		}
	}
	return points, nil
}

func (s Stream) fill(points []Point) error {
	switch s.Type {
	case "time":
		var data []int
		if err := s.decode(&data, func() int { return len(data) }); err != nil {
			return err
		}
		for i := range data {
			points[i].TimeOffset = data[i]
		}
	case "distance":
		var data []float64
		if err := s.decode(&data, func() int { return len(data) }); err != nil {
			return err
		}
		for i := range data {
			points[i].Distance = data[i]
		}
	case "latlng":
		var data []LatLng
		if err := s.decode(&data, func() int { return len(data) }); err != nil {
			return err
		}
		for i := range data {
			points[i].Latitude = data[i].Latitude()
			points[i].Longitude = data[i].Longitude()
		}
	case "altitude":
		var data []float64
		if err := s.decode(&data, func() int { return len(data) }); err != nil {
			return err
		}
		for i := range data {
			points[i].Altitude = data[i]
		}
	}
	return nil
}

func (s Stream) decode(output interface{}, length func() int) error {
	if err := json.Unmarshal(s.Data, output); err != nil {
		return &DeserializationError{Op: "activity streams", Err: err}
	}
	if length() != s.OriginalSize {
		return errors.New("data count does not match stream original size")
	}
	return nil
}
