package mpv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSettings(t *testing.T) {
	s, err := DecodeSettings(map[string]any{
		"video": "no",
		"hwdec": "auto",
		"mute":  true,
		"vo":    nil,
	})
	require.NoError(t, err)

	assert.Equal(t, "no", s.Video)
	assert.Equal(t, "no", s.AudioDisplay)
	assert.Equal(t, []option{
		{"pause", "yes"},
		{"keep-open", "yes"},
		{"video", "no"},
		{"audio-display", "no"},
		{"hwdec", "auto"},
		{"mute", "yes"},
	}, s.options())
}

func TestDecodeSettings_Defaults(t *testing.T) {
	s, err := DecodeSettings(nil)
	require.NoError(t, err)
	assert.Equal(t, "auto", s.Video)
	assert.Empty(t, s.Extra)
}

func TestDecodeSettings_WrongType(t *testing.T) {
	_, err := DecodeSettings(map[string]any{"video": []string{"a"}})
	assert.Error(t, err)
}
