package timeline

import (
	"sort"
	"time"
)

// MinDuration is the shortest a clip can be trimmed to.
const MinDuration = 40 * time.Millisecond

// Element is a clip placed on the timeline.
type Element struct {
	Name string

	start         time.Duration // position on the timeline
	duration      time.Duration // visible length
	inPoint       time.Duration // offset into the media
	mediaDuration time.Duration // full media length, 0 if unbounded

	timeline *Timeline
}

// NewElement creates a clip covering the whole media.
func NewElement(name string, start, mediaDuration time.Duration) *Element {
	return &Element{
		Name:          name,
		start:         max(start, 0),
		duration:      mediaDuration,
		mediaDuration: mediaDuration,
	}
}

// Start returns the clip position on the timeline.
func (e *Element) Start() time.Duration { return e.start }

// Duration returns the visible clip length.
func (e *Element) Duration() time.Duration { return e.duration }

// End returns Start + Duration.
func (e *Element) End() time.Duration { return e.start + e.duration }

// InPoint returns the media offset of the first visible frame.
func (e *Element) InPoint() time.Duration { return e.inPoint }

// SnapStartDurationTime moves the clip so that it starts at t, or so that
// either of its edges lands on a nearby timeline edge.
func (e *Element) SnapStartDurationTime(t time.Duration) {
	t = max(t, 0)
	if e.timeline != nil {
		startSnap, startDist, okStart := e.timeline.nearestEdge(t)
		endSnap, endDist, okEnd := e.timeline.nearestEdge(t + e.duration)
		switch {
		case okStart && (!okEnd || startDist <= endDist):
			t = startSnap
		case okEnd:
			t = endSnap - e.duration
		}
	}
	e.setStart(max(t, 0))
}

// SnapInTime trims the clip start to t, keeping its end in place.
func (e *Element) SnapInTime(t time.Duration) {
	t = e.snap(t)
	end := e.End()

	// keep at least MinDuration visible
	t = min(t, end-MinDuration)
	// cannot reveal media before its first frame; a clip already shorter
	// than MinDuration is left as is
	t = max(t, e.start-e.inPoint, 0)

	delta := t - e.start
	e.inPoint += delta
	e.duration -= delta
	e.setStart(t)
}

// SnapOutTime trims the clip end to t.
func (e *Element) SnapOutTime(t time.Duration) {
	t = e.snap(t)
	end := max(t, e.start+MinDuration)
	if e.mediaDuration > 0 {
		end = min(end, e.start+e.mediaDuration-e.inPoint)
	}
	e.duration = end - e.start
	e.edgesChanged()
}

func (e *Element) snap(t time.Duration) time.Duration {
	if e.timeline == nil {
		return t
	}
	if s, _, ok := e.timeline.nearestEdge(t); ok {
		return s
	}
	return t
}

func (e *Element) setStart(t time.Duration) {
	e.start = t
	e.edgesChanged()
}

func (e *Element) edgesChanged() {
	if e.timeline != nil {
		e.timeline.updateEdges()
	}
}

// Timeline holds clips and the edges they can snap to.
type Timeline struct {
	elements     []*Element
	edges        []time.Duration
	edgeUpdates  bool
	snapDeadband time.Duration
}

// NewTimeline creates a timeline snapping within deadband of an edge.
// A zero deadband disables snapping.
func NewTimeline(deadband time.Duration) *Timeline {
	return &Timeline{
		edgeUpdates:  true,
		snapDeadband: deadband,
	}
}

// Add places e on the timeline.
func (tl *Timeline) Add(e *Element) {
	e.timeline = tl
	tl.elements = append(tl.elements, e)
	tl.updateEdges()
}

// Elements returns the clips in insertion order.
func (tl *Timeline) Elements() []*Element {
	out := make([]*Element, len(tl.elements))
	copy(out, tl.elements)
	return out
}

// Edges returns the current snap edges in ascending order.
func (tl *Timeline) Edges() []time.Duration {
	out := make([]time.Duration, len(tl.edges))
	copy(out, tl.edges)
	return out
}

// Duration returns the end of the last clip.
func (tl *Timeline) Duration() time.Duration {
	var d time.Duration
	for _, e := range tl.elements {
		d = max(d, e.End())
	}
	return d
}

// DisableEdgeUpdates freezes the snap edges, typically for a drag.
func (tl *Timeline) DisableEdgeUpdates() {
	tl.edgeUpdates = false
}

// EnableEdgeUpdates unfreezes and recomputes the snap edges.
func (tl *Timeline) EnableEdgeUpdates() {
	tl.edgeUpdates = true
	tl.updateEdges()
}

func (tl *Timeline) updateEdges() {
	if !tl.edgeUpdates {
		return
	}
	seen := make(map[time.Duration]struct{}, len(tl.elements)*2)
	edges := tl.edges[:0]
	for _, e := range tl.elements {
		for _, t := range [2]time.Duration{e.start, e.End()} {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			edges = append(edges, t)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i] < edges[j] })
	tl.edges = edges
}

func (tl *Timeline) nearestEdge(t time.Duration) (time.Duration, time.Duration, bool) {
	if tl.snapDeadband <= 0 || len(tl.edges) == 0 {
		return 0, 0, false
	}
	i := sort.Search(len(tl.edges), func(i int) bool { return tl.edges[i] >= t })

	best, bestDist, found := time.Duration(0), time.Duration(0), false
	for _, j := range [2]int{i - 1, i} {
		if j < 0 || j >= len(tl.edges) {
			continue
		}
		d := tl.edges[j] - t
		if d < 0 {
			d = -d
		}
		if d <= tl.snapDeadband && (!found || d < bestDist) {
			best, bestDist, found = tl.edges[j], d, true
		}
	}
	return best, bestDist, found
}
