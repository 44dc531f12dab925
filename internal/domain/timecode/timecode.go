// Package timecode formats and parses HH:MM:SS.mmm positions.
package timecode

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Unknown is displayed in place of a time that has not been reported yet.
const Unknown = "--:--:--.---"

// ErrInvalid is returned when a timecode cannot be parsed.
var ErrInvalid = errors.New("invalid timecode")

// maxSeconds is the longest position a time.Duration can hold.
const maxSeconds = float64(math.MaxInt64 / int64(time.Second))

// Format renders d as HH:MM:SS.mmm. Negative durations render as zero.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000

	var b strings.Builder
	b.Grow(12)
	pad(&b, h, 2)
	b.WriteByte(':')
	pad(&b, m, 2)
	b.WriteByte(':')
	pad(&b, s, 2)
	b.WriteByte('.')
	pad(&b, ms, 3)
	return b.String()
}

// FormatKnown renders d, or Unknown when known is false.
func FormatKnown(d time.Duration, known bool) string {
	if !known {
		return Unknown
	}
	return Format(d)
}

// Label renders the viewer's "position / duration" label.
func Label(position, duration time.Duration, durationKnown bool) string {
	return Format(position) + " / " + FormatKnown(duration, durationKnown)
}

func pad(b *strings.Builder, v int64, width int) {
	s := strconv.FormatInt(v, 10)
	for i := len(s); i < width; i++ {
		b.WriteByte('0')
	}
	b.WriteString(s)
}

// Parse accepts "HH:MM:SS.mmm", "MM:SS", "SS.mmm" or a plain number of
// seconds ("90", "12.5").
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.Wrap(ErrInvalid, "empty timecode")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, errors.Wrapf(ErrInvalid, "too many fields in %q", s)
	}

	var total float64 // seconds
	for i, p := range parts {
		last := i == len(parts)-1
		if last {
			secs, err := strconv.ParseFloat(p, 64)
			if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
				return 0, errors.Wrapf(ErrInvalid, "bad seconds field %q", p)
			}
			if len(parts) > 1 && secs >= 60 {
				return 0, errors.Wrapf(ErrInvalid, "seconds out of range in %q", s)
			}
			total += secs
			continue
		}

		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, errors.Wrapf(ErrInvalid, "bad field %q", p)
		}
		// minutes are bounded only when hours are present
		if len(parts) == 3 && i == 1 && v >= 60 {
			return 0, errors.Wrapf(ErrInvalid, "minutes out of range in %q", s)
		}
		unit := 60.0
		if len(parts) == 3 && i == 0 {
			unit = 3600
		}
		total += float64(v) * unit
	}

	if total > maxSeconds {
		return 0, errors.Wrapf(ErrInvalid, "timecode %q out of range", s)
	}
	return time.Duration(total * float64(time.Second)).Round(time.Millisecond), nil
}
