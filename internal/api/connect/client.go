package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a TransportService client.
type Client struct {
	getStatus *connect.Client[structpb.Struct, structpb.Struct]
	seek      *connect.Client[structpb.Struct, structpb.Struct]
	stepFrame *connect.Client[structpb.Struct, structpb.Struct]
	toggle    *connect.Client[structpb.Struct, structpb.Struct]
	open      *connect.Client[structpb.Struct, structpb.Struct]
	watch     *connect.Client[structpb.Struct, structpb.Struct]
}

// NewClient creates a client for the service at baseURL. A non-empty
// token is sent with every call.
func NewClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithInterceptors(NewTokenClientInterceptor(token))}, opts...)
	newClient := func(procedure string) *connect.Client[structpb.Struct, structpb.Struct] {
		return connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+procedure, opts...)
	}
	return &Client{
		getStatus: newClient(GetStatusProcedure),
		seek:      newClient(SeekProcedure),
		stepFrame: newClient(StepFrameProcedure),
		toggle:    newClient(TogglePlayPauseProcedure),
		open:      newClient(OpenProcedure),
		watch:     newClient(WatchProcedure),
	}
}

// GetStatus returns the session status.
func (c *Client) GetStatus(ctx context.Context) (*structpb.Struct, error) {
	return call(ctx, c.getStatus, &structpb.Struct{})
}

// Seek seeks to position, a timecode or a number of seconds.
func (c *Client) Seek(ctx context.Context, position string) (*structpb.Struct, error) {
	return call(ctx, c.seek, &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldPosition: structpb.NewStringValue(position),
	}})
}

// StepFrame moves delta frames.
func (c *Client) StepFrame(ctx context.Context, delta int64) (*structpb.Struct, error) {
	return call(ctx, c.stepFrame, &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldDelta: structpb.NewNumberValue(float64(delta)),
	}})
}

// TogglePlayPause toggles playback.
func (c *Client) TogglePlayPause(ctx context.Context) (*structpb.Struct, error) {
	return call(ctx, c.toggle, &structpb.Struct{})
}

// Open opens uri on the server.
func (c *Client) Open(ctx context.Context, uri string) (*structpb.Struct, error) {
	return call(ctx, c.open, &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldURI: structpb.NewStringValue(uri),
	}})
}

// Watch calls fn for every streamed message until ctx is done, the
// stream ends or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(*structpb.Struct) error) error {
	stream, err := c.watch.CallServerStream(ctx, connect.NewRequest(&structpb.Struct{}))
	if err != nil {
		return errors.Wrap(err, "failed to open watch stream")
	}
	defer stream.Close()

	for stream.Receive() {
		if err := fn(stream.Msg()); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "watch stream failed")
	}
	return nil
}

func call(ctx context.Context, client *connect.Client[structpb.Struct, structpb.Struct], msg *structpb.Struct) (*structpb.Struct, error) {
	resp, err := client.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
