package models

import (
	"errors"
	"fmt"
	"sort"
)

type BuoyType string

const (
	BuoyTypeNDBC    BuoyType = "NDBC"
	BuoyTypeScripps BuoyType = "SCRIPPS"
)

var ErrUnknownBuoy = errors.New("unknown buoy")

type Buoy struct {
	Number int      `json:"number"`
	Type   BuoyType `json:"type"`
	// Latitude and Longitude are nil when the location is unknown
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasLocation reports whether both coordinates are known
func (b Buoy) HasLocation() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// Name is the source name used by the record stores, e.g. "NDBC-46022"
func (b Buoy) Name() string {
	return fmt.Sprintf("%s-%d", b.Type, b.Number)
}

var knownBuoys = map[int]Buoy{
	46022: {Number: 46022, Type: BuoyTypeNDBC, Latitude: coord(40.749), Longitude: coord(-124.577)},
	46212: {Number: 46212, Type: BuoyTypeScripps, Latitude: coord(40.753), Longitude: coord(-124.313)},
	46244: {Number: 46244, Type: BuoyTypeScripps, Latitude: coord(40.888), Longitude: coord(-124.357)},
}

func coord(deg float64) *float64 {
	return &deg
}

// LookupBuoy returns the metadata for a known buoy
func LookupBuoy(number int) (Buoy, error) {
	b, ok := knownBuoys[number]
	if !ok {
		return Buoy{}, fmt.Errorf("%w: %d", ErrUnknownBuoy, number)
	}
	return b, nil
}

// BuoyOrDefault returns known metadata, or a bare NDBC entry without a location
func BuoyOrDefault(number int) (Buoy, bool) {
	b, err := LookupBuoy(number)
	if err != nil {
		return Buoy{Number: number, Type: BuoyTypeNDBC}, false
	}
	return b, true
}

// KnownBuoys lists the buoys with metadata, ordered by number
func KnownBuoys() []Buoy {
	out := make([]Buoy, 0, len(knownBuoys))
	for _, b := range knownBuoys {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})
	return out
}
