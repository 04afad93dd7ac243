package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2022, 5, 15, hour, minute, 0, 0, time.UTC)
}

func TestNewBusyInterval(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{"valid", at(8, 0), at(9, 0), false},
		{"one second", at(8, 0), at(8, 0).Add(time.Second), false},
		{"empty", at(8, 0), at(8, 0), true},
		{"reversed", at(9, 0), at(8, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, err := NewBusyInterval(tt.start, tt.end)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInterval)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, iv.Start)
			assert.Equal(t, tt.end, iv.End)
		})
	}
}

func TestBusyInterval_Overlaps(t *testing.T) {
	iv := BusyInterval{Start: at(9, 0), End: at(10, 0)}

	tests := []struct {
		name string
		t    time.Time
		d    time.Duration
		want bool
	}{
		{"ends exactly at start", at(8, 0), time.Hour, false},
		{"ends one second into interval", at(8, 0), time.Hour + time.Second, true},
		{"starts exactly at end", at(10, 0), time.Hour, false},
		{"starts inside", at(9, 30), time.Minute, true},
		{"covers interval", at(8, 0), 3 * time.Hour, true},
		{"instant at start", at(9, 0), 0, true},
		{"instant at end", at(10, 0), 0, false},
		{"instant before", at(8, 59), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, iv.Overlaps(tt.t, tt.d))
		})
	}
}

func TestBusyInterval_String(t *testing.T) {
	iv := BusyInterval{Start: at(9, 0), End: at(10, 30)}
	assert.Equal(t, "2022-05-15 09:00:00 - 2022-05-15 10:30:00", iv.String())
	assert.Equal(t, 90*time.Minute, iv.Duration())
}
