package calfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/quorumslot/internal/calendar"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func ids(cals []*calendar.Calendar) []string {
	out := make([]string, len(cals))
	for i, c := range cals {
		out[i] = c.ID
	}
	return out
}

func TestParticipantID(t *testing.T) {
	assert.Equal(t, "alice", ParticipantID("/tmp/cals/alice.txt"))
	assert.Equal(t, "bob.smith", ParticipantID("bob.smith.ics"))
	assert.Equal(t, "carol", ParticipantID("carol"))
}

func TestLoadDir(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"carol.txt": "2022-05-15 10:00:00 - 2022-05-15 11:00:00\n2022-05-15 08:00:00 - 2022-05-15 09:00:00\n",
		"alice.txt": "2022-05-16\n",
		"bob.ics": icsDoc(`BEGIN:VEVENT
UID:1
DTSTART:20220515T080000Z
DTEND:20220515T090000Z
END:VEVENT`),
		"notes.md": "ignored",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0o755))

	cals, err := LoadDir(context.Background(), dir, Options{Location: time.UTC})
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "bob", "carol"}, ids(cals))

	want := []calendar.BusyInterval{
		iv("2022-05-15 08:00:00", "2022-05-15 09:00:00"),
		iv("2022-05-15 10:00:00", "2022-05-15 11:00:00"),
	}
	if diff := cmp.Diff(want, cals[2].Intervals()); diff != "" {
		t.Errorf("carol intervals not sorted (-want +got):\n%s", diff)
	}
}

func TestLoadDir_Errors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr error
		msg     string
	}{
		{
			name:    "empty directory",
			files:   map[string]string{"README": "nothing here"},
			wantErr: ErrNoCalendars,
		},
		{
			name:    "malformed line",
			files:   map[string]string{"a.txt": "2022-05-15 08:00:00 - 2022-05-15 09:00:00", "b.txt": "nope"},
			wantErr: ErrMalformedLine,
			msg:     "b.txt:1",
		},
		{
			name:    "overlapping lines",
			files:   map[string]string{"a.txt": "2022-05-15 08:00:00 - 2022-05-15 10:00:00\n2022-05-15 09:00:00 - 2022-05-15 11:00:00"},
			wantErr: calendar.ErrUnsortedOrOverlapping,
		},
		{
			name: "duplicate participant",
			files: map[string]string{
				"a.txt": "2022-05-16",
				"a.ics": icsDoc(),
			},
			msg: `participant "a" defined by both`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeFiles(t, tt.files)
			_, err := LoadDir(context.Background(), dir, Options{Location: time.UTC})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	_, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDir_Cancelled(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.txt": "2022-05-16"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadDir(ctx, dir, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadFile_UnsupportedFormat(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.csv": "x"})
	_, err := ReadFile(filepath.Join(dir, "a.csv"), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
