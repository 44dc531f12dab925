package transport

import (
	"time"

	"github.com/osa030/seekbox/internal/app/pipeline"
	"github.com/osa030/seekbox/internal/app/seek"
	"github.com/osa030/seekbox/internal/domain/timecode"
)

// Button is the action the play/pause button offers.
type Button int

const (
	ButtonPlay Button = iota
	ButtonPause
)

func (b Button) String() string {
	if b == ButtonPause {
		return "pause"
	}
	return "play"
}

// View is the display model of the viewer controls.
type View struct {
	TimeLabel string        // "position / duration"
	Slider    time.Duration // Slider position
	SliderMax time.Duration
	Button    Button
	Sensitive bool // Controls accept input
	Dragging  bool
	Frame     int64 // seek.NoFrame unless frame stepping
}

// BuildView derives the view from a coordinator snapshot. While dragging
// the slider keeps the user's value instead of tracking playback.
func BuildView(snap seek.Snapshot, dragging bool, sliderValue time.Duration) View {
	v := View{
		TimeLabel: timecode.Label(snap.CurrentTime, snap.Duration, snap.DurationKnown),
		Slider:    snap.CurrentTime,
		SliderMax: snap.Duration,
		Button:    ButtonPlay,
		Sensitive: snap.Attached && snap.DurationKnown && snap.Duration > 0,
		Dragging:  dragging,
		Frame:     snap.CurrentFrame,
	}
	if dragging {
		v.Slider = sliderValue
	}
	if snap.PlayState == pipeline.StatePlaying {
		v.Button = ButtonPause
	}
	return v
}
