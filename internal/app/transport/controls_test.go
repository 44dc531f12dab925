package transport

import (
	"testing"
	"time"

	"github.com/osa030/seekbox/internal/app/eventloop/eventlooptest"
	"github.com/osa030/seekbox/internal/app/pipeline"
	"github.com/osa030/seekbox/internal/app/pipeline/pipelinetest"
	"github.com/osa030/seekbox/internal/app/seek"
	"github.com/osa030/seekbox/internal/domain/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	controls *Controls
	coord    *seek.Coordinator
	mock     *pipelinetest.Mock
	sched    *eventlooptest.Manual
}

func newFixture(t *testing.T, duration time.Duration) *fixture {
	t.Helper()
	sched := eventlooptest.NewManual()
	coord := seek.New(sched, seek.Config{FrameRate: media.FrameRate{Num: 25, Den: 1}})
	m := pipelinetest.NewMock()
	if duration > 0 {
		m.SetDuration(duration)
	}
	require.NoError(t, coord.Attach(m))
	return &fixture{
		controls: New(coord, Config{}),
		coord:    coord,
		mock:     m,
		sched:    sched,
	}
}

func (f *fixture) lastSeek(t *testing.T) pipeline.Target {
	t.Helper()
	calls := f.mock.SeekCalls()
	require.NotEmpty(t, calls)
	return calls[len(calls)-1]
}

func TestControls_ScrollTime(t *testing.T) {
	tests := []struct {
		name     string
		position time.Duration
		dir      Direction
		want     time.Duration
	}{
		{"forward", 2 * time.Second, Forward, 2500 * time.Millisecond},
		{"backward", 2 * time.Second, Backward, 1500 * time.Millisecond},
		{"clamped at zero", 200 * time.Millisecond, Backward, 0},
		{"clamped at duration", 9800 * time.Millisecond, Forward, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 10*time.Second)
			f.mock.EmitPosition(tt.position)

			require.NoError(t, f.controls.Scroll(tt.dir))
			assert.Equal(t, pipeline.AtTime(tt.want), f.lastSeek(t))
		})
	}
}

func TestControls_ScrollFrames(t *testing.T) {
	f := newFixture(t, 10*time.Second)
	f.mock.EmitPosition(2 * time.Second)

	require.NoError(t, f.controls.StepFrame(1))
	assert.Equal(t, pipeline.AtFrame(51), f.lastSeek(t))
	f.sched.FireAll()

	require.NoError(t, f.controls.Scroll(Backward))
	assert.Equal(t, pipeline.AtFrame(50), f.lastSeek(t))
	f.sched.FireAll()

	require.NoError(t, f.controls.Scroll(Forward))
	assert.Equal(t, pipeline.AtFrame(51), f.lastSeek(t))
}

func TestControls_FrameScrollNeverBelowZero(t *testing.T) {
	f := newFixture(t, 10*time.Second)

	require.NoError(t, f.controls.StepFrame(0))
	f.sched.FireAll()
	require.NoError(t, f.controls.Scroll(Backward))

	assert.Equal(t, pipeline.AtFrame(0), f.lastSeek(t))
}

func TestControls_StepFrameFromFrameMode(t *testing.T) {
	f := newFixture(t, 10*time.Second)

	require.NoError(t, f.controls.StepFrame(10))
	f.sched.FireAll()
	require.NoError(t, f.controls.StepFrame(-3))

	assert.Equal(t, []pipeline.Target{pipeline.AtFrame(10), pipeline.AtFrame(7)}, f.mock.SeekCalls())
}

func TestControls_SliderDrag(t *testing.T) {
	f := newFixture(t, 60*time.Second)
	f.mock.EmitState(pipeline.StatePlaying)

	require.NoError(t, f.controls.SliderPress())
	assert.Equal(t, 1, f.mock.PauseCalls())
	assert.True(t, f.controls.Dragging())

	require.NoError(t, f.controls.SliderMove(12*time.Second))
	assert.Equal(t, pipeline.AtTime(12*time.Second), f.lastSeek(t))

	// Coalesced while the first seek is in flight; the slider keeps the user's value.
	require.NoError(t, f.controls.SliderMove(20*time.Second))
	f.mock.EmitPosition(12 * time.Second)
	v := f.controls.View()
	assert.True(t, v.Dragging)
	assert.Equal(t, 20*time.Second, v.Slider)

	require.NoError(t, f.controls.SliderRelease())
	assert.False(t, f.controls.Dragging())
	assert.Equal(t, 1, f.mock.PlayCalls())
}

func TestControls_SliderReleaseRestoresPaused(t *testing.T) {
	f := newFixture(t, 60*time.Second)

	require.NoError(t, f.controls.SliderPress())
	require.NoError(t, f.controls.SliderRelease())

	assert.Equal(t, 0, f.mock.PlayCalls())
	assert.Equal(t, 2, f.mock.PauseCalls())
}

func TestControls_SliderReleaseResumesWhenBackendReportsPause(t *testing.T) {
	f := newFixture(t, 60*time.Second)
	f.mock.SetReportState(true)

	require.NoError(t, f.controls.PlayPause())
	require.Equal(t, pipeline.StatePlaying, f.coord.Snapshot().PlayState)

	require.NoError(t, f.controls.SliderPress())
	assert.Equal(t, pipeline.StatePaused, f.coord.Snapshot().PlayState)

	require.NoError(t, f.controls.SliderMove(10*time.Second))
	require.NoError(t, f.controls.SliderRelease())

	assert.Equal(t, 2, f.mock.PlayCalls())
	assert.Equal(t, pipeline.StatePlaying, f.coord.Snapshot().PlayState)
}

func TestControls_SliderReleaseKeepsPausedWhenBackendReportsPause(t *testing.T) {
	f := newFixture(t, 60*time.Second)
	f.mock.SetReportState(true)

	require.NoError(t, f.controls.SliderPress())
	require.NoError(t, f.controls.SliderRelease())

	assert.Equal(t, 0, f.mock.PlayCalls())
	assert.Equal(t, pipeline.StatePaused, f.coord.Snapshot().PlayState)
}

func TestControls_SecondPressKeepsFirstState(t *testing.T) {
	f := newFixture(t, 60*time.Second)
	f.mock.SetReportState(true)
	require.NoError(t, f.controls.PlayPause())

	require.NoError(t, f.controls.SliderPress())
	require.NoError(t, f.controls.SliderPress())
	require.NoError(t, f.controls.SliderRelease())

	assert.Equal(t, pipeline.StatePlaying, f.coord.Snapshot().PlayState)
}

func TestControls_SliderMoveWithoutPressIgnored(t *testing.T) {
	f := newFixture(t, 60*time.Second)

	require.NoError(t, f.controls.SliderMove(5*time.Second))
	require.NoError(t, f.controls.SliderRelease())

	assert.Empty(t, f.mock.SeekCalls())
	assert.Equal(t, 0, f.mock.PauseCalls())
}

func TestControls_PlayPause(t *testing.T) {
	f := newFixture(t, 60*time.Second)

	require.NoError(t, f.controls.PlayPause())
	assert.Equal(t, 1, f.mock.PlayCalls())
}

func TestControls_Detached(t *testing.T) {
	f := newFixture(t, 60*time.Second)
	f.coord.Detach()

	assert.ErrorIs(t, f.controls.Scroll(Forward), seek.ErrNoPipeline)
	assert.ErrorIs(t, f.controls.StepFrame(1), seek.ErrNoPipeline)
	assert.ErrorIs(t, f.controls.PlayPause(), seek.ErrNoPipeline)
}
