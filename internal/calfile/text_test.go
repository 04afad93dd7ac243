package calfile

import (
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/quorumslot/internal/calendar"
)

func ts(s string) time.Time {
	t, err := time.ParseInLocation(calendar.TimeLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func iv(start, end string) calendar.BusyInterval {
	return calendar.BusyInterval{Start: ts(start), End: ts(end)}
}

func TestParseText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []calendar.BusyInterval
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "range",
			input: "2022-05-15 08:00:00 - 2022-05-15 09:30:00\n",
			want:  []calendar.BusyInterval{iv("2022-05-15 08:00:00", "2022-05-15 09:30:00")},
		},
		{
			name:  "bare date blocks the day",
			input: "2022-05-16",
			want:  []calendar.BusyInterval{iv("2022-05-16 00:00:00", "2022-05-16 23:59:59")},
		},
		{
			name: "blank lines comments and whitespace",
			input: `# alice
  2022-05-15 08:00:00 - 2022-05-15 09:00:00

	2022-05-15 10:00:00 - 2022-05-15 11:00:00  
`,
			want: []calendar.BusyInterval{
				iv("2022-05-15 08:00:00", "2022-05-15 09:00:00"),
				iv("2022-05-15 10:00:00", "2022-05-15 11:00:00"),
			},
		},
		{
			name:  "file order is preserved",
			input: "2022-05-15 10:00:00 - 2022-05-15 11:00:00\n2022-05-15 08:00:00 - 2022-05-15 09:00:00",
			want: []calendar.BusyInterval{
				iv("2022-05-15 10:00:00", "2022-05-15 11:00:00"),
				iv("2022-05-15 08:00:00", "2022-05-15 09:00:00"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseText(strings.NewReader(tt.input), "test.txt", time.UTC)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseText mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseText_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
		wantErr  error
	}{
		{
			name:     "garbage",
			input:    "hello world",
			wantLine: 1,
			wantErr:  ErrMalformedLine,
		},
		{
			name:     "bad date",
			input:    "\n2022-13-01",
			wantLine: 2,
			wantErr:  ErrMalformedLine,
		},
		{
			name:     "missing separator",
			input:    "2022-05-15 08:00:00 2022-05-15 09:00:00",
			wantLine: 1,
			wantErr:  ErrMalformedLine,
		},
		{
			name:     "bad end timestamp",
			input:    "# c\n2022-05-15 08:00:00 - 2022-05-15 9:00",
			wantLine: 2,
			wantErr:  ErrMalformedLine,
		},
		{
			name:     "end before start",
			input:    "2022-05-15 09:00:00 - 2022-05-15 08:00:00",
			wantLine: 1,
			wantErr:  calendar.ErrInvalidInterval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseText(strings.NewReader(tt.input), "bob.txt", time.UTC)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var lineErr *LineError
			require.True(t, errors.As(err, &lineErr))
			assert.Equal(t, "bob.txt", lineErr.File)
			assert.Equal(t, tt.wantLine, lineErr.Line)
			assert.Contains(t, err.Error(), "bob.txt:")
		})
	}
}

func TestParseText_Location(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	got, err := ParseText(strings.NewReader("2022-05-15 08:00:00 - 2022-05-15 09:00:00"), "x.txt", loc)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(time.Date(2022, 5, 15, 6, 0, 0, 0, time.UTC)))
}

func TestAllDay(t *testing.T) {
	got := AllDay(ts("2022-05-15 13:45:12"))
	assert.Equal(t, iv("2022-05-15 00:00:00", "2022-05-15 23:59:59"), got)
}

func TestParseText_AllDayAcrossDSTChange(t *testing.T) {
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		days  []int
		month time.Month
	}{
		// 2022-03-27 has 23 hours in Warsaw, 2022-10-30 has 25.
		{name: "spring forward", input: "2022-03-26\n2022-03-27\n2022-03-28\n", days: []int{26, 27, 28}, month: time.March},
		{name: "fall back", input: "2022-10-29\n2022-10-30\n2022-10-31\n", days: []int{29, 30, 31}, month: time.October},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseText(strings.NewReader(tt.input), "dst.txt", warsaw)
			require.NoError(t, err)
			require.Len(t, got, len(tt.days))

			for i, day := range tt.days {
				assert.True(t, got[i].Start.Equal(time.Date(2022, tt.month, day, 0, 0, 0, 0, warsaw)), "start of day %d", day)
				assert.True(t, got[i].End.Equal(time.Date(2022, tt.month, day, 23, 59, 59, 0, warsaw)), "end of day %d", day)
			}

			_, err = calendar.New("dst", got)
			require.NoError(t, err)
		})
	}
}

func TestFormat(t *testing.T) {
	intervals := []calendar.BusyInterval{
		iv("2022-05-15 08:00:00", "2022-05-15 09:00:00"),
		iv("2022-05-16 00:00:00", "2022-05-16 23:59:59"),
	}

	out := Format(intervals)
	assert.Equal(t, "2022-05-15 08:00:00 - 2022-05-15 09:00:00\n2022-05-16 00:00:00 - 2022-05-16 23:59:59", out)

	back, err := ParseText(strings.NewReader(out), "roundtrip.txt", time.UTC)
	require.NoError(t, err)
	if diff := cmp.Diff(intervals, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, Format(nil))
}
