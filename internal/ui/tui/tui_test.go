package tui

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/seekbox/internal/app/eventloop/eventlooptest"
	"github.com/osa030/seekbox/internal/app/pipeline"
	"github.com/osa030/seekbox/internal/app/pipeline/pipelinetest"
	"github.com/osa030/seekbox/internal/app/seek"
	"github.com/osa030/seekbox/internal/app/session"
	"github.com/osa030/seekbox/internal/app/transport"
	"github.com/osa030/seekbox/internal/domain/media"
)

func newControls(t *testing.T) (*transport.Controls, *pipelinetest.Mock) {
	t.Helper()
	coord := seek.New(eventlooptest.NewManual(), seek.Config{FrameRate: media.FrameRate{Num: 25, Den: 1}})
	m := pipelinetest.NewMock()
	m.SetDuration(10 * time.Second)
	require.NoError(t, coord.Attach(m))
	return transport.New(coord, transport.Config{}), m
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		name  string
		event *tcell.EventKey
		want  pipeline.Target
	}{
		{"right scrolls forward", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), pipeline.AtTime(500 * time.Millisecond)},
		{"left scrolls back", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), pipeline.AtTime(0)},
		{"period steps forward", tcell.NewEventKey(tcell.KeyRune, '.', tcell.ModNone), pipeline.AtFrame(1)},
		{"comma steps back", tcell.NewEventKey(tcell.KeyRune, ',', tcell.ModNone), pipeline.AtFrame(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, m := newControls(t)
			fn := actionFor(tt.event)
			require.NotNil(t, fn)
			require.NoError(t, fn(c))
			assert.Equal(t, []pipeline.Target{tt.want}, m.SeekCalls())
		})
	}
}

func TestActionFor_Space(t *testing.T) {
	c, m := newControls(t)
	fn := actionFor(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	require.NotNil(t, fn)
	require.NoError(t, fn(c))
	assert.Equal(t, 1, m.PlayCalls())
}

func TestActionFor_Unbound(t *testing.T) {
	assert.Nil(t, actionFor(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)))
	assert.Nil(t, actionFor(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)))
}

func TestSliderValueAt(t *testing.T) {
	maximum := 10 * time.Second
	assert.Equal(t, time.Duration(0), sliderValueAt(0, 11, maximum))
	assert.Equal(t, 5*time.Second, sliderValueAt(5, 11, maximum))
	assert.Equal(t, maximum, sliderValueAt(10, 11, maximum))
	assert.Equal(t, maximum, sliderValueAt(40, 11, maximum))
	assert.Equal(t, time.Duration(0), sliderValueAt(-3, 11, maximum))
	assert.Equal(t, time.Duration(0), sliderValueAt(3, 11, 0))
}

func TestProgressBar(t *testing.T) {
	v := transport.View{Slider: 5 * time.Second, SliderMax: 10 * time.Second, Sensitive: true}
	assert.Equal(t, "[green]█████[-][gray]░░░░░[-]", progressBar(v, 10))

	v = transport.View{}
	assert.Equal(t, "[gray][-][gray]░░░░[-]", progressBar(v, 4))
	assert.Empty(t, progressBar(v, 0))
}

func TestStatusText(t *testing.T) {
	st := session.Status{
		Snapshot: seek.Snapshot{Attached: true},
		View:     transport.View{TimeLabel: "00:00:01.000 / 00:00:10.000", Button: transport.ButtonPause, Frame: seek.NoFrame},
	}
	assert.Equal(t, "00:00:01.000 / 00:00:10.000  ▶", statusText(st))

	st.View.Button = transport.ButtonPlay
	st.View.Frame = 25
	st.Snapshot.SeekInFlight = true
	assert.Equal(t, "[yellow]#25  00:00:01.000 / 00:00:10.000  ⏸[-]", statusText(st))
}

func TestTitleText(t *testing.T) {
	assert.Contains(t, titleText(session.Status{}), "no media")

	st := session.Status{Media: media.New("file:///a/clip.mp4"), Snapshot: seek.Snapshot{Attached: true}}
	assert.Contains(t, titleText(st), "clip.mp4")
}
