package models

import "fmt"

// ChunkKind distinguishes yearly archive chunks from monthly near-real-time chunks
type ChunkKind int

const (
	ChunkYear ChunkKind = iota
	ChunkMonth
)

// TimeChunk is one fetchable unit of NDBC archive data. Historical data is
// archived by year, data for the current year by month.
type TimeChunk struct {
	Kind  ChunkKind
	Year  int
	Month int
}

// YearChunk creates a chunk covering a whole historical year
func YearChunk(year int) TimeChunk {
	return TimeChunk{Kind: ChunkYear, Year: year}
}

// MonthChunk creates a chunk covering one month of the current year
func MonthChunk(month, impliedYear int) TimeChunk {
	return TimeChunk{Kind: ChunkMonth, Year: impliedYear, Month: month}
}

func (c TimeChunk) IsYear() bool {
	return c.Kind == ChunkYear
}

func (c TimeChunk) String() string {
	if c.Kind == ChunkMonth {
		return fmt.Sprintf("%04d-%02d", c.Year, c.Month)
	}
	return fmt.Sprintf("%04d", c.Year)
}
