// Package media provides the Media domain entity.
package media

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// FrameRate is a rational frames-per-second value (e.g. 30000/1001).
type FrameRate struct {
	Num int
	Den int
}

// IsValid reports whether the rate can be used for frame conversion.
func (r FrameRate) IsValid() bool {
	return r.Num > 0 && r.Den > 0
}

// FrameDuration returns the duration of one frame, or 0 for an invalid rate.
func (r FrameRate) FrameDuration() time.Duration {
	if !r.IsValid() {
		return 0
	}
	return time.Duration(int64(time.Second) * int64(r.Den) / int64(r.Num))
}

// FrameAt returns the index of the frame displayed at t.
func (r FrameRate) FrameAt(t time.Duration) int64 {
	if !r.IsValid() || t <= 0 {
		return 0
	}
	return int64(t) * int64(r.Num) / (int64(time.Second) * int64(r.Den))
}

// TimeOf returns the presentation time of frame n.
func (r FrameRate) TimeOf(n int64) time.Duration {
	if !r.IsValid() || n <= 0 {
		return 0
	}
	return time.Duration(n * int64(time.Second) * int64(r.Den) / int64(r.Num))
}

// Media represents a playable item handed to a pipeline.
type Media struct {
	URI       string        // file path or URI understood by the pipeline
	Name      string        // display name
	Duration  time.Duration // known duration, 0 if unknown
	FrameRate FrameRate     // video frame rate, zero if unknown
}

// New creates a Media for uri with its display name derived from the URI.
func New(uri string) Media {
	return Media{
		URI:  uri,
		Name: NameFromURI(uri),
	}
}

// NameFromURI returns the unescaped base name of uri.
func NameFromURI(uri string) string {
	s := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" && u.Path != "" {
		s = u.Path
	}
	if unescaped, err := url.PathUnescape(s); err == nil {
		s = unescaped
	}
	s = strings.TrimRight(s, "/")
	if s == "" {
		return uri
	}
	return path.Base(s)
}
