package mpv

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/mitchellh/mapstructure"
)

// Settings configures the mpv engine. Unknown keys are passed to mpv as
// options verbatim.
type Settings struct {
	Video        string         `mapstructure:"video" default:"auto"`
	AudioDisplay string         `mapstructure:"audio_display" default:"no"`
	Extra        map[string]any `mapstructure:",remain"`
}

// DecodeSettings decodes backend settings from the config map.
func DecodeSettings(raw map[string]any) (Settings, error) {
	var s Settings
	if err := mapstructure.Decode(raw, &s); err != nil {
		return s, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&s); err != nil {
		return s, errors.Wrap(err, "failed to set defaults")
	}
	return s, nil
}

type option struct {
	name, value string
}

// options returns the mpv options to set before initialization, in a
// stable order. Playback always starts paused and keeps the last frame
// open at end of file.
func (s Settings) options() []option {
	opts := []option{
		{"pause", "yes"},
		{"keep-open", "yes"},
		{"video", s.Video},
		{"audio-display", s.AudioDisplay},
	}

	keys := make([]string, 0, len(s.Extra))
	for k := range s.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := s.Extra[k]
		if v == nil {
			continue
		}
		switch b := v.(type) {
		case bool:
			if b {
				v = "yes"
			} else {
				v = "no"
			}
		}
		opts = append(opts, option{k, fmt.Sprint(v)})
	}
	return opts
}
