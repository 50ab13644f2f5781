package session

import (
	"github.com/google/uuid"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

// Inbound event tags
const (
	EventClientSegment = "client_segment"
	EventStatus        = "status"
)

// Status message texts
const (
	MsgConnected        = "connected"
	MsgReceived         = "received"
	MsgSegmentSaved     = "segment saved"
	MsgNotAuthenticated = "not authenticated yet"
	MsgInvalidJSON      = "invalid json"
	MsgInvalidPayload   = "invalid payload"
	MsgCallIDMismatch   = "call id mismatch"
	MsgServerError      = "server_error"
)

// ClientSegment is the only inbound frame a session accepts
type ClientSegment struct {
	Event           string   `json:"event" validate:"required,eq=client_segment"`
	CallID          string   `json:"call_id" validate:"required,uuid"`
	Speaker         string   `json:"speaker" validate:"required,eq=CLIENTE"`
	Text            string   `json:"text" validate:"required"`
	StartMs         *int64   `json:"start_ms,omitempty" validate:"omitempty,min=0"`
	EndMs           *int64   `json:"end_ms,omitempty" validate:"omitempty,min=0"`
	Source          string   `json:"source" validate:"required,eq=TAB"`
	ASRConfidence   *float64 `json:"asr_confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	IsEchoSuspected *bool    `json:"is_echo_suspected,omitempty"`
}

// ToEntity converts a validated frame into a storable segment
func (m *ClientSegment) ToEntity(callID uuid.UUID) *entities.Segment {
	seg := &entities.Segment{
		CallID:        callID,
		Source:        entities.SegmentSource(m.Source),
		Speaker:       entities.Speaker(m.Speaker),
		StartMs:       m.StartMs,
		EndMs:         m.EndMs,
		Text:          m.Text,
		ASRConfidence: m.ASRConfidence,
	}
	if m.IsEchoSuspected != nil {
		seg.IsEchoSuspected = *m.IsEchoSuspected
	}
	return seg
}

// StatusMessage is the outbound acknowledgement frame
type StatusMessage struct {
	Event     string `json:"event"`
	OK        bool   `json:"ok"`
	Msg       string `json:"msg,omitempty"`
	LatencyMs *int64 `json:"latency_ms,omitempty"`
}

func okStatus(msg string) StatusMessage {
	return StatusMessage{Event: EventStatus, OK: true, Msg: msg}
}

func failStatus(msg string) StatusMessage {
	return StatusMessage{Event: EventStatus, OK: false, Msg: msg}
}

func savedStatus(latencyMs int64) StatusMessage {
	return StatusMessage{Event: EventStatus, OK: true, Msg: MsgSegmentSaved, LatencyMs: &latencyMs}
}
