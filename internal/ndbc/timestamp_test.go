package ndbc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateFromRaw(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fields  []int
		want    time.Time
		wantErr bool
	}{
		{
			name:   "minute offset shifted to the next hour",
			fields: []int{2008, 6, 15, 13, 50},
			want:   time.Date(2008, 6, 15, 14, 0, 0, 0, time.UTC),
		},
		{
			name:   "two digit year gets 1900 added",
			fields: []int{8, 1, 2, 3},
			want:   time.Date(1908, 1, 2, 3, 0, 0, 0, time.UTC),
		},
		{
			name:   "pre minute layout",
			fields: []int{1996, 3, 4, 5},
			want:   time.Date(1996, 3, 4, 5, 0, 0, 0, time.UTC),
		},
		{
			name:   "zero minute untouched",
			fields: []int{2009, 1, 1, 0, 0},
			want:   time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "shift rolls over the year",
			fields: []int{2009, 12, 31, 23, 50},
			want:   time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "odd minute",
			fields: []int{2010, 7, 1, 8, 1},
			want:   time.Date(2010, 7, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			name:    "too few fields",
			fields:  []int{2009, 1, 1},
			wantErr: true,
		},
		{
			name:    "month out of range",
			fields:  []int{2009, 13, 1, 0, 0},
			wantErr: true,
		},
		{
			name:    "day out of range",
			fields:  []int{2009, 2, 30, 0},
			wantErr: true,
		},
		{
			name:    "hour out of range",
			fields:  []int{2009, 2, 3, 24, 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DateFromRaw(tt.fields)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}
