package connect

import (
	"context"
	"math"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/seekbox/internal/app/notification"
	"github.com/osa030/seekbox/internal/app/seek"
	"github.com/osa030/seekbox/internal/app/session"
	"github.com/osa030/seekbox/internal/domain/timecode"
)

// TransportServiceName is the fully-qualified name of the service.
const TransportServiceName = "seekbox.v1.TransportService"

// Procedure paths.
const (
	GetStatusProcedure       = "/" + TransportServiceName + "/GetStatus"
	SeekProcedure            = "/" + TransportServiceName + "/Seek"
	StepFrameProcedure       = "/" + TransportServiceName + "/StepFrame"
	TogglePlayPauseProcedure = "/" + TransportServiceName + "/TogglePlayPause"
	OpenProcedure            = "/" + TransportServiceName + "/Open"
	WatchProcedure           = "/" + TransportServiceName + "/Watch"
)

// Request fields.
const (
	FieldPosition = "position"
	FieldDelta    = "delta"
	FieldURI      = "uri"
)

// KindInitial marks the first message of a Watch stream.
const KindInitial = "initial"

// TransportService implements the TransportService RPC.
type TransportService struct {
	session *session.Manager
}

// NewTransportService creates a new TransportService.
func NewTransportService(session *session.Manager) *TransportService {
	return &TransportService{session: session}
}

// NewTransportServiceHandler builds an HTTP handler serving every
// procedure of svc. It returns the path to mount it on.
func NewTransportServiceHandler(svc *TransportService, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(GetStatusProcedure, connect.NewUnaryHandler(GetStatusProcedure, svc.GetStatus, opts...))
	mux.Handle(SeekProcedure, connect.NewUnaryHandler(SeekProcedure, svc.Seek, opts...))
	mux.Handle(StepFrameProcedure, connect.NewUnaryHandler(StepFrameProcedure, svc.StepFrame, opts...))
	mux.Handle(TogglePlayPauseProcedure, connect.NewUnaryHandler(TogglePlayPauseProcedure, svc.TogglePlayPause, opts...))
	mux.Handle(OpenProcedure, connect.NewUnaryHandler(OpenProcedure, svc.Open, opts...))
	mux.Handle(WatchProcedure, connect.NewServerStreamHandler(WatchProcedure, svc.Watch, opts...))
	return "/" + TransportServiceName + "/", mux
}

// GetStatus returns the current session status.
func (s *TransportService) GetStatus(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	return s.status(ctx)
}

// Seek seeks to the requested position. The position is a timecode
// string or a number of seconds.
func (s *TransportService) Seek(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	pos, err := parsePosition(req.Msg.GetFields()[FieldPosition])
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.session.Seek(ctx, pos); err != nil {
		return nil, toConnectError(err)
	}
	return s.status(ctx)
}

// StepFrame moves delta frames. A missing delta steps one frame forward.
func (s *TransportService) StepFrame(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	delta := int64(1)
	if v, ok := req.Msg.GetFields()[FieldDelta]; ok {
		n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
		if !isNumber || n.NumberValue != math.Trunc(n.NumberValue) {
			return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("delta must be an integer"))
		}
		delta = int64(n.NumberValue)
	}
	if err := s.session.StepFrame(ctx, delta); err != nil {
		return nil, toConnectError(err)
	}
	return s.status(ctx)
}

// TogglePlayPause toggles playback.
func (s *TransportService) TogglePlayPause(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	if err := s.session.Toggle(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return s.status(ctx)
}

// Open opens a new media.
func (s *TransportService) Open(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	uri := req.Msg.GetFields()[FieldURI].GetStringValue()
	if uri == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("uri is required"))
	}
	if err := s.session.Open(ctx, uri); err != nil {
		return nil, toConnectError(err)
	}
	return s.status(ctx)
}

// Watch streams the current status followed by every session event.
func (s *TransportService) Watch(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
	stream *connect.ServerStream[structpb.Struct],
) error {
	notifManager := s.session.Notifications()

	status, err := s.session.Status(ctx)
	if err != nil {
		return toConnectError(err)
	}
	initial := status.Struct()
	initial.Fields[session.FieldKind] = structpb.NewStringValue(KindInitial)
	initial.Fields[notification.SequenceField] = structpb.NewNumberValue(float64(notifManager.NextSequenceNo()))

	adapter := &streamAdapter{stream: stream}
	if err := adapter.Send(initial); err != nil {
		return err
	}

	subscriptionID := notifManager.Subscribe(adapter)
	zlog.Debug().Str("subscription", subscriptionID).Msg("watch stream opened")

	select {
	case <-ctx.Done():
	case <-s.session.Done():
	}

	notifManager.Unsubscribe(subscriptionID)
	zlog.Debug().Str("subscription", subscriptionID).Msg("watch stream closed")
	return nil
}

func (s *TransportService) status(ctx context.Context) (*connect.Response[structpb.Struct], error) {
	status, err := s.session.Status(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(status.Struct()), nil
}

// streamAdapter adapts connect.ServerStream to notification.Stream.
// Sends are serialized because a timed-out send may still be running.
type streamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[structpb.Struct]
}

func (a *streamAdapter) Send(msg *structpb.Struct) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream.Send(msg)
}

// parsePosition accepts a timecode string or a number of seconds.
func parsePosition(v *structpb.Value) (time.Duration, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return timecode.Parse(k.StringValue)
	case *structpb.Value_NumberValue:
		if k.NumberValue < 0 || math.IsNaN(k.NumberValue) || math.IsInf(k.NumberValue, 0) {
			return 0, errors.Wrapf(timecode.ErrInvalid, "bad position %v", k.NumberValue)
		}
		return time.Duration(k.NumberValue * float64(time.Second)).Round(time.Millisecond), nil
	default:
		return 0, errors.Wrap(timecode.ErrInvalid, "position is required")
	}
}

// toConnectError maps session and seek errors to connect codes.
func toConnectError(err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, seek.ErrNoPipeline):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, seek.ErrSeekRejected):
		code = connect.CodeAborted
	case errors.Is(err, timecode.ErrInvalid):
		code = connect.CodeInvalidArgument
	case errors.Is(err, session.ErrSessionClosed):
		code = connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}
	return connect.NewError(code, err)
}
