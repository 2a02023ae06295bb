package models

import "fmt"

// DataType identifies one of the NDBC archive series fetched for a buoy
type DataType int

const (
	Meteorological DataType = iota
	SpecDensity
	DirectionAlpha1
	DirectionAlpha2
	DirectionR1
	DirectionR2
)

var dataTypeNames = map[DataType]string{
	Meteorological:  "meteorological",
	SpecDensity:     "specDensity",
	DirectionAlpha1: "directionAlpha1",
	DirectionAlpha2: "directionAlpha2",
	DirectionR1:     "directionR1",
	DirectionR2:     "directionR2",
}

func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", int(d))
}

// Valid reports whether d is one of the known series
func (d DataType) Valid() bool {
	_, ok := dataTypeNames[d]
	return ok
}

// ParseDataType converts a series tag such as "specDensity" to a DataType
func ParseDataType(s string) (DataType, error) {
	for dt, name := range dataTypeNames {
		if name == s {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("unknown data type: %s", s)
}

// SpectralTypes returns the spectral series in the order they are joined onto
// the meteorological records.
func SpectralTypes() []DataType {
	return []DataType{SpecDensity, DirectionAlpha1, DirectionAlpha2, DirectionR1, DirectionR2}
}

// AllDataTypes returns every series, meteorological first
func AllDataTypes() []DataType {
	return append([]DataType{Meteorological}, SpectralTypes()...)
}
