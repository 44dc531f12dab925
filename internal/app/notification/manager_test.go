package notification

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

type recordingStream struct {
	mu   sync.Mutex
	got  []*structpb.Struct
	err  error
	wait chan struct{}
}

func (s *recordingStream) Send(msg *structpb.Struct) error {
	if s.wait != nil {
		<-s.wait
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, msg)
	return s.err
}

func (s *recordingStream) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func newMsg(t *testing.T, kind string) *structpb.Struct {
	t.Helper()
	msg, err := structpb.NewStruct(map[string]any{"kind": kind})
	require.NoError(t, err)
	return msg
}

func TestManager_BroadcastSequence(t *testing.T) {
	m := NewManager()
	a, b := &recordingStream{}, &recordingStream{}
	m.Subscribe(a)
	m.Subscribe(b)

	m.Broadcast(newMsg(t, "position"))
	m.Broadcast(newMsg(t, "state"))

	require.Equal(t, 2, a.count())
	require.Equal(t, 2, b.count())
	assert.Equal(t, float64(1), a.got[0].Fields[SequenceField].GetNumberValue())
	assert.Equal(t, float64(2), a.got[1].Fields[SequenceField].GetNumberValue())
	assert.Equal(t, "state", b.got[1].Fields["kind"].GetStringValue())
}

func TestManager_LateSubscriberSeesGap(t *testing.T) {
	m := NewManager()
	early, late := &recordingStream{}, &recordingStream{}
	m.Subscribe(early)

	m.Broadcast(newMsg(t, "attached"))
	m.Broadcast(newMsg(t, "duration"))
	m.Subscribe(late)
	m.Broadcast(newMsg(t, "seek_issued"))

	require.Equal(t, 1, late.count())
	assert.Equal(t, float64(3), late.got[0].Fields[SequenceField].GetNumberValue())
	assert.Equal(t, float64(3), early.got[2].Fields[SequenceField].GetNumberValue())
}

func TestManager_ConcurrentSequenceUnique(t *testing.T) {
	m := NewManager()
	const n = 50

	var wg sync.WaitGroup
	seen := make(chan uint64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- m.NextSequenceNo()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]bool)
	for v := range seen {
		unique[v] = true
	}
	assert.Len(t, unique, n)
	assert.Equal(t, uint64(n+1), m.NextSequenceNo())
}

func TestManager_FailedStreamUnsubscribed(t *testing.T) {
	m := NewManager()
	bad := &recordingStream{err: errors.New("stream closed")}
	good := &recordingStream{}
	m.Subscribe(bad)
	m.Subscribe(good)

	m.Broadcast(newMsg(t, "position"))
	assert.Equal(t, 1, m.SubscriberCount())

	m.Broadcast(newMsg(t, "position"))
	assert.Equal(t, 1, bad.count())
	assert.Equal(t, 2, good.count())
}

func TestManager_SlowStreamDoesNotBlock(t *testing.T) {
	m := NewManager()
	m.sendTimeout = 20 * time.Millisecond
	slow := &recordingStream{wait: make(chan struct{})}
	defer close(slow.wait)
	m.Subscribe(slow)

	start := time.Now()
	m.Broadcast(newMsg(t, "position"))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, m.SubscriberCount())
}

func TestManager_SendAndUnsubscribe(t *testing.T) {
	m := NewManager()
	s := &recordingStream{}
	id := m.Subscribe(s)

	require.NoError(t, m.Send(id, newMsg(t, "status")))
	require.NoError(t, m.Send("missing", newMsg(t, "status")))
	assert.Equal(t, 1, s.count())

	m.Unsubscribe(id)
	assert.Equal(t, 0, m.SubscriberCount())

	m.Subscribe(s)
	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}
