package connect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/seekbox/internal/app/pipeline"
	"github.com/osa030/seekbox/internal/app/pipeline/pipelinetest"
	"github.com/osa030/seekbox/internal/app/seek"
	"github.com/osa030/seekbox/internal/app/session"
	"github.com/osa030/seekbox/internal/domain/media"
	"github.com/osa030/seekbox/internal/domain/timecode"
)

type testServer struct {
	session *session.Manager
	url     string
	client  *http.Client

	mu    sync.Mutex
	mocks []*pipelinetest.Mock
}

func (ts *testServer) lastMock() *pipelinetest.Mock {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.mocks[len(ts.mocks)-1]
}

func newTestServer(t *testing.T, token string) *testServer {
	t.Helper()
	ts := &testServer{}

	factory := func(media.Media) (pipeline.Pipeline, error) {
		m := pipelinetest.NewMock()
		m.SetDuration(10 * time.Second)
		ts.mu.Lock()
		ts.mocks = append(ts.mocks, m)
		ts.mu.Unlock()
		return m, nil
	}
	sess, err := session.NewManager(factory, session.Config{
		Seek: seek.Config{SettleDelay: 50 * time.Millisecond, FrameRate: media.FrameRate{Num: 25, Den: 1}},
	})
	require.NoError(t, err)
	ts.session = sess

	mux := http.NewServeMux()
	path, handler := NewTransportServiceHandler(
		NewTransportService(sess),
		connect.WithInterceptors(NewControlAuthInterceptor(token)),
	)
	mux.Handle(path, handler)

	srv := httptest.NewServer(mux)
	ts.url = srv.URL
	ts.client = srv.Client()

	t.Cleanup(func() {
		sess.Close()
		srv.Close()
	})
	return ts
}

func mustOpen(t *testing.T, c *Client) {
	t.Helper()
	_, err := c.Open(context.Background(), "file:///media/clip.mp4")
	require.NoError(t, err)
}

func TestTransportService_GetStatus(t *testing.T) {
	ts := newTestServer(t, "")
	c := NewClient(ts.client, ts.url, "")
	ctx := context.Background()

	st, err := c.GetStatus(ctx)
	require.NoError(t, err)
	assert.False(t, st.Fields[session.FieldAttached].GetBoolValue())
	assert.Equal(t, "idle", st.Fields[session.FieldPhase].GetStringValue())

	mustOpen(t, c)
	st, err = c.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, st.Fields[session.FieldAttached].GetBoolValue())
	assert.Equal(t, "clip.mp4", st.Fields[session.FieldMediaName].GetStringValue())
	assert.Equal(t, "00:00:10.000", st.Fields[session.FieldDuration].GetStringValue())
	assert.Equal(t, "play", st.Fields[session.FieldButton].GetStringValue())
}

func TestTransportService_Seek(t *testing.T) {
	ts := newTestServer(t, "")
	c := NewClient(ts.client, ts.url, "")
	ctx := context.Background()

	_, err := c.Seek(ctx, "1")
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	mustOpen(t, c)

	st, err := c.Seek(ctx, "00:00:02.500")
	require.NoError(t, err)
	assert.Equal(t, float64(2500), st.Fields[session.FieldPositionMs].GetNumberValue())
	assert.True(t, st.Fields[session.FieldSeekInFlight].GetBoolValue())
	assert.Equal(t, []pipeline.Target{pipeline.AtTime(2500 * time.Millisecond)}, ts.lastMock().SeekCalls())

	_, err = c.Seek(ctx, "not-a-time")
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestTransportService_SeekRejected(t *testing.T) {
	ts := newTestServer(t, "")
	c := NewClient(ts.client, ts.url, "")
	mustOpen(t, c)
	ts.lastMock().SetSeekError(errors.New("not seekable"))

	_, err := c.Seek(context.Background(), "3")
	assert.Equal(t, connect.CodeAborted, connect.CodeOf(err))
}

func TestTransportService_StepFrameAndToggle(t *testing.T) {
	ts := newTestServer(t, "")
	c := NewClient(ts.client, ts.url, "")
	ctx := context.Background()
	mustOpen(t, c)

	st, err := c.StepFrame(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, float64(3), st.Fields[session.FieldFrame].GetNumberValue())

	_, err = c.TogglePlayPause(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ts.lastMock().PlayCalls())
}

func TestTransportService_StepFrameRejectsFraction(t *testing.T) {
	ts := newTestServer(t, "")
	client := connect.NewClient[structpb.Struct, structpb.Struct](ts.client, ts.url+StepFrameProcedure)

	_, err := client.CallUnary(context.Background(), connect.NewRequest(&structpb.Struct{
		Fields: map[string]*structpb.Value{FieldDelta: structpb.NewNumberValue(1.5)},
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestTransportService_OpenRequiresURI(t *testing.T) {
	ts := newTestServer(t, "")
	c := NewClient(ts.client, ts.url, "")

	_, err := c.Open(context.Background(), "")
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestTransportService_Closed(t *testing.T) {
	ts := newTestServer(t, "")
	c := NewClient(ts.client, ts.url, "")
	ts.session.Close()

	_, err := c.GetStatus(context.Background())
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))
}

func TestTransportService_Auth(t *testing.T) {
	ts := newTestServer(t, "secret")
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
		code  connect.Code
	}{
		{name: "missing token", token: "", code: connect.CodeUnauthenticated},
		{name: "wrong token", token: "nope", code: connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(ts.client, ts.url, tt.token)
			_, err := c.GetStatus(ctx)
			assert.Equal(t, tt.code, connect.CodeOf(err))

			err = c.Watch(ctx, func(*structpb.Struct) error { return nil })
			require.Error(t, err)
			assert.Equal(t, tt.code, connect.CodeOf(err))
		})
	}

	c := NewClient(ts.client, ts.url, "secret")
	_, err := c.GetStatus(ctx)
	require.NoError(t, err)
}

func TestTransportService_Watch(t *testing.T) {
	ts := newTestServer(t, "")
	c := NewClient(ts.client, ts.url, "")
	mustOpen(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errStop := errors.New("stop")
	msgs := make(chan *structpb.Struct, 16)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- c.Watch(ctx, func(msg *structpb.Struct) error {
			msgs <- msg
			if msg.Fields[session.FieldKind].GetStringValue() == seek.UpdateSeekIssued.String() {
				return errStop
			}
			return nil
		})
	}()

	first := <-msgs
	assert.Equal(t, KindInitial, first.Fields[session.FieldKind].GetStringValue())
	assert.Contains(t, first.Fields, "sequence_no")

	require.Eventually(t, func() bool {
		return ts.session.Notifications().SubscriberCount() == 1
	}, time.Second, 5*time.Millisecond)

	_, err := c.Seek(ctx, "4")
	require.NoError(t, err)

	select {
	case err := <-watchErr:
		assert.ErrorIs(t, err, errStop)
	case <-ctx.Done():
		t.Fatal("watch did not receive the seek")
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		name    string
		value   *structpb.Value
		want    time.Duration
		wantErr bool
	}{
		{name: "timecode", value: structpb.NewStringValue("00:01:02.250"), want: 62250 * time.Millisecond},
		{name: "seconds string", value: structpb.NewStringValue("12.5"), want: 12500 * time.Millisecond},
		{name: "seconds number", value: structpb.NewNumberValue(1.25), want: 1250 * time.Millisecond},
		{name: "negative", value: structpb.NewNumberValue(-1), wantErr: true},
		{name: "missing", value: nil, wantErr: true},
		{name: "bool", value: structpb.NewBoolValue(true), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePosition(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, timecode.ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToConnectError(t *testing.T) {
	tests := []struct {
		err  error
		code connect.Code
	}{
		{errors.Wrap(seek.ErrNoPipeline, "x"), connect.CodeFailedPrecondition},
		{errors.Mark(errors.New("x"), seek.ErrSeekRejected), connect.CodeAborted},
		{timecode.ErrInvalid, connect.CodeInvalidArgument},
		{session.ErrSessionClosed, connect.CodeUnavailable},
		{context.Canceled, connect.CodeCanceled},
		{errors.New("other"), connect.CodeInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, connect.CodeOf(toConnectError(tt.err)), tt.err.Error())
	}
}
