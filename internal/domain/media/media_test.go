package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNameFromURI(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "file uri with escapes", uri: "file:///home/user/My%20Clip.ogv", expected: "My Clip.ogv"},
		{name: "plain path", uri: "/videos/intro.mkv", expected: "intro.mkv"},
		{name: "relative path", uri: "clip.webm", expected: "clip.webm"},
		{name: "http uri", uri: "https://example.com/media/trailer.mp4", expected: "trailer.mp4"},
		{name: "trailing slash", uri: "/videos/", expected: "videos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NameFromURI(tt.uri))
		})
	}
}

func TestNew(t *testing.T) {
	m := New("file:///tmp/a%20b.mp4")
	assert.Equal(t, "file:///tmp/a%20b.mp4", m.URI)
	assert.Equal(t, "a b.mp4", m.Name)
	assert.Zero(t, m.Duration)
}

func TestFrameRate(t *testing.T) {
	pal := FrameRate{Num: 25, Den: 1}
	assert.True(t, pal.IsValid())
	assert.Equal(t, 40*time.Millisecond, pal.FrameDuration())
	assert.Equal(t, int64(25), pal.FrameAt(time.Second))
	assert.Equal(t, int64(37), pal.FrameAt(1519*time.Millisecond))
	assert.Equal(t, 2*time.Second, pal.TimeOf(50))
	assert.Zero(t, pal.TimeOf(-3))

	ntsc := FrameRate{Num: 30000, Den: 1001}
	assert.Equal(t, time.Duration(33366666), ntsc.FrameDuration())
	assert.Equal(t, int64(29), ntsc.FrameAt(time.Second))

	var zero FrameRate
	assert.False(t, zero.IsValid())
	assert.Zero(t, zero.FrameDuration())
	assert.Zero(t, zero.FrameAt(time.Minute))
}
