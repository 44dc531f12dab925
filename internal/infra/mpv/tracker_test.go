package mpv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/seekbox/internal/app/pipeline"
)

func TestTracker_Apply(t *testing.T) {
	tr := newTracker()

	c := tr.apply(observation{timePos: 1.25, duration: 90.0, pause: true})
	assert.True(t, c.durationChanged)
	assert.Equal(t, 90*time.Second, c.duration)
	assert.True(t, c.positionChanged)
	assert.Equal(t, 1250*time.Millisecond, c.position)
	assert.False(t, c.stateChanged)

	c = tr.apply(observation{timePos: 1.25, duration: 90.0, pause: false})
	assert.False(t, c.durationChanged)
	assert.False(t, c.positionChanged)
	assert.True(t, c.stateChanged)
	assert.Equal(t, pipeline.StatePlaying, c.state)
}

func TestTracker_IgnoresUnavailable(t *testing.T) {
	tr := newTracker()

	c := tr.apply(observation{})
	assert.Equal(t, changes{}, c)
	assert.False(t, tr.durKnown)

	// mpv reports 0 until the demuxer knows the length.
	c = tr.apply(observation{duration: 0.0})
	assert.False(t, c.durationChanged)
}

func TestTracker_NegativePositionClamped(t *testing.T) {
	tr := newTracker()
	c := tr.apply(observation{timePos: -0.04})
	require.True(t, c.positionChanged)
	assert.Equal(t, time.Duration(0), c.position)
}

func TestSeekArg(t *testing.T) {
	assert.Equal(t, "0.000", seekArg(0))
	assert.Equal(t, "0.000", seekArg(-time.Second))
	assert.Equal(t, "61.500", seekArg(61500*time.Millisecond))
	assert.Equal(t, "2.040", seekArg(2040*time.Millisecond))
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 1001*time.Millisecond, seconds(1.0006))
	assert.Equal(t, 40*time.Millisecond, seconds(0.04))
}
