package session

import (
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/seekbox/internal/domain/timecode"
)

// Struct field names shared with RPC clients.
const (
	FieldKind          = "kind"
	FieldError         = "error"
	FieldSessionID     = "session_id"
	FieldPhase         = "phase"
	FieldMediaURI      = "media_uri"
	FieldMediaName     = "media_name"
	FieldAttached      = "attached"
	FieldPosition      = "position"
	FieldPositionMs    = "position_ms"
	FieldDuration      = "duration"
	FieldDurationMs    = "duration_ms"
	FieldDurationKnown = "duration_known"
	FieldFrame         = "frame"
	FieldState         = "state"
	FieldSeekInFlight  = "seek_in_flight"
	FieldPendingMs     = "pending_seek_ms"
	FieldLabel         = "label"
	FieldButton        = "button"
	FieldSensitive     = "sensitive"
)

// Struct renders the status as a protobuf Struct.
func (s Status) Struct() *structpb.Struct {
	snap := s.Snapshot
	fields := map[string]*structpb.Value{
		FieldSessionID:     structpb.NewStringValue(s.SessionID),
		FieldPhase:         structpb.NewStringValue(s.Phase.String()),
		FieldMediaURI:      structpb.NewStringValue(s.Media.URI),
		FieldMediaName:     structpb.NewStringValue(s.Media.Name),
		FieldAttached:      structpb.NewBoolValue(snap.Attached),
		FieldPosition:      structpb.NewStringValue(timecode.Format(snap.CurrentTime)),
		FieldPositionMs:    structpb.NewNumberValue(float64(snap.CurrentTime.Milliseconds())),
		FieldDuration:      structpb.NewStringValue(timecode.FormatKnown(snap.Duration, snap.DurationKnown)),
		FieldDurationMs:    structpb.NewNumberValue(float64(snap.Duration.Milliseconds())),
		FieldDurationKnown: structpb.NewBoolValue(snap.DurationKnown),
		FieldFrame:         structpb.NewNumberValue(float64(snap.CurrentFrame)),
		FieldState:         structpb.NewStringValue(snap.PlayState.String()),
		FieldSeekInFlight:  structpb.NewBoolValue(snap.SeekInFlight),
		FieldLabel:         structpb.NewStringValue(s.View.TimeLabel),
		FieldButton:        structpb.NewStringValue(s.View.Button.String()),
		FieldSensitive:     structpb.NewBoolValue(s.View.Sensitive),
	}
	if snap.HasPendingSeek {
		fields[FieldPendingMs] = structpb.NewNumberValue(float64(snap.PendingSeek.Milliseconds()))
	}
	return &structpb.Struct{Fields: fields}
}

// Struct renders the event as a protobuf Struct: the status fields plus
// the update kind and error, if any.
func (e Event) Struct() *structpb.Struct {
	st := e.Status.Struct()
	st.Fields[FieldKind] = structpb.NewStringValue(e.Kind.String())
	if e.Err != nil {
		st.Fields[FieldError] = structpb.NewStringValue(e.Err.Error())
	}
	return st
}
