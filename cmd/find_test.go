package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/quorumslot/internal/availability"
	"github.com/teemow/quorumslot/internal/config"
)

// writeCalendars creates the calendars of the A/B/C example: A busy 08:00
// to 09:00, B busy 08:30 to 09:30, C free.
func writeCalendars(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"A.txt": "2022-05-15 08:00:00 - 2022-05-15 09:00:00\n",
		"B.txt": "2022-05-15 08:30:00 - 2022-05-15 09:30:00\n",
		"C.txt": "",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func baseFindOptions(dir string) *findOptions {
	return &findOptions{
		durationMinutes: 60,
		minimumPeople:   2,
		calendarsDir:    dir,
		start:           "2022-05-15 08:00:00",
		format:          formatText,
		timezone:        "UTC",
		timeout:         time.Minute,
		parallelism:     1,
		source:          config.SourceFiles,
	}
}

func TestFindOptions_Run(t *testing.T) {
	dir := writeCalendars(t)

	tests := []struct {
		name     string
		modify   func(o *findOptions)
		expected string
	}{
		{
			name:     "two of three",
			modify:   func(o *findOptions) {},
			expected: "A, C\n2022-05-15 09:00:00\n",
		},
		{
			name:     "everyone",
			modify:   func(o *findOptions) { o.minimumPeople = 3 },
			expected: "A, B, C\n2022-05-15 09:30:00\n",
		},
		{
			name:     "parallel search",
			modify:   func(o *findOptions) { o.parallelism = 4 },
			expected: "A, C\n2022-05-15 09:00:00\n",
		},
		{
			name:     "start defaults to now",
			modify:   func(o *findOptions) { o.start = ""; o.minimumPeople = 3 },
			expected: "A, B, C\n2022-05-15 10:15:07\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := baseFindOptions(dir)
			opts.now = func() time.Time { return time.Date(2022, 5, 15, 10, 15, 7, 500, time.UTC) }
			tt.modify(opts)

			var out bytes.Buffer
			require.NoError(t, opts.run(context.Background(), &out))
			assert.Equal(t, tt.expected, out.String())
		})
	}
}

func TestFindOptions_RunJSON(t *testing.T) {
	opts := baseFindOptions(writeCalendars(t))
	opts.format = formatJSON

	var out bytes.Buffer
	require.NoError(t, opts.run(context.Background(), &out))

	var got availability.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, availability.Report{
		Found:        true,
		Participants: []string{"A", "C"},
		Start:        "2022-05-15T09:00:00Z",
		End:          "2022-05-15T10:00:00Z",
	}, got)
}

func TestWriteResult_NotFound(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeResult(&out, formatText, availability.Result{}, time.Hour, time.UTC))
	assert.Equal(t, "no slot found\n", out.String())

	out.Reset()
	require.NoError(t, writeResult(&out, formatJSON, availability.Result{}, time.Hour, time.UTC))
	assert.JSONEq(t, `{"found":false,"participants":[]}`, out.String())
}

func TestFindOptions_Errors(t *testing.T) {
	dir := writeCalendars(t)

	tests := []struct {
		name        string
		modify      func(o *findOptions)
		errContains string
	}{
		{
			name:        "duration not positive",
			modify:      func(o *findOptions) { o.durationMinutes = 0 },
			errContains: "--duration-in-minutes",
		},
		{
			name:        "quorum below one",
			modify:      func(o *findOptions) { o.minimumPeople = 0 },
			errContains: "--minimum-people",
		},
		{
			name:        "more people than calendars",
			modify:      func(o *findOptions) { o.minimumPeople = 4 },
			errContains: availability.ErrInsufficientCalendars.Error(),
		},
		{
			name:        "missing calendars dir",
			modify:      func(o *findOptions) { o.calendarsDir = "" },
			errContains: "--calendars is required",
		},
		{
			name:        "nonexistent calendars dir",
			modify:      func(o *findOptions) { o.calendarsDir = filepath.Join(dir, "missing") },
			errContains: "missing",
		},
		{
			name:        "bad start",
			modify:      func(o *findOptions) { o.start = "15.05.2022" },
			errContains: "--start",
		},
		{
			name:        "bad format",
			modify:      func(o *findOptions) { o.format = "yaml" },
			errContains: "--format",
		},
		{
			name:        "bad source",
			modify:      func(o *findOptions) { o.source = "outlook" },
			errContains: "--source",
		},
		{
			name:        "google without calendars",
			modify:      func(o *findOptions) { o.source = config.SourceGoogle },
			errContains: "--google-calendars",
		},
		{
			name:        "bad timezone",
			modify:      func(o *findOptions) { o.timezone = "Mars/Olympus" },
			errContains: "invalid timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := baseFindOptions(dir)
			tt.modify(opts)

			var out bytes.Buffer
			err := opts.run(context.Background(), &out)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
			assert.Empty(t, out.String())
		})
	}
}

func TestFindOptions_MalformedCalendar(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("2022-05-15 08:00:00 to 09:00\n"), 0o600))

	opts := baseFindOptions(dir)
	opts.minimumPeople = 1

	err := opts.run(context.Background(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.txt:1")
}
