package timecode

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{name: "zero", in: 0, want: "00:00:00.000"},
		{name: "millis", in: 45 * time.Millisecond, want: "00:00:00.045"},
		{name: "seconds", in: 30*time.Second + 500*time.Millisecond, want: "00:00:30.500"},
		{name: "minutes", in: 2*time.Minute + 3*time.Second, want: "00:02:03.000"},
		{name: "hours", in: 10*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond, want: "10:59:59.999"},
		{name: "sub-millisecond truncated", in: 1500 * time.Microsecond, want: "00:00:00.001"},
		{name: "negative clamps", in: -time.Second, want: "00:00:00.000"},
		{name: "over 99 hours", in: 120 * time.Hour, want: "120:00:00.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "00:00:00.000 / --:--:--.---", Label(0, 0, false))
	assert.Equal(t, "00:00:30.000 / 00:02:00.000", Label(30*time.Second, 2*time.Minute, true))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "full", in: "01:02:03.250", want: time.Hour + 2*time.Minute + 3*time.Second + 250*time.Millisecond},
		{name: "minutes and seconds", in: "2:30", want: 2*time.Minute + 30*time.Second},
		{name: "plain seconds", in: "90", want: 90 * time.Second},
		{name: "fractional seconds", in: "12.5", want: 12*time.Second + 500*time.Millisecond},
		{name: "surrounding spaces", in: "  00:00:01.000 ", want: time.Second},
		{name: "round trip of format", in: Format(45*time.Second + 7*time.Millisecond), want: 45*time.Second + 7*time.Millisecond},
		{name: "empty", in: "", wantErr: true},
		{name: "garbage", in: "abc", wantErr: true},
		{name: "too many fields", in: "1:2:3:4", wantErr: true},
		{name: "seconds out of range", in: "00:01:75", wantErr: true},
		{name: "minutes out of range", in: "01:75:00", wantErr: true},
		{name: "negative", in: "-5", wantErr: true},
		{name: "not a number", in: "NaN", wantErr: true},
		{name: "infinity", in: "inf", wantErr: true},
		{name: "negative infinity", in: "-Inf", wantErr: true},
		{name: "nan seconds field", in: "00:00:NaN", wantErr: true},
		{name: "beyond duration range", in: "1e300", wantErr: true},
		{name: "hours beyond duration range", in: "9999999999:00:00", wantErr: true},
		{name: "large but valid", in: "1000:00:00", want: 1000 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalid))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
