package session

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/johnquangdev/sales-mentor/pkg/validator"
)

// IngestError carries the status text reported for a rejected frame
type IngestError struct {
	Msg    string
	Fields []string
}

func (e *IngestError) Error() string {
	return e.Msg
}

// Ingestor validates inbound frames against the client segment schema
type Ingestor struct {
	validator *validator.CustomValidator
}

// NewIngestor creates a new segment ingestor
func NewIngestor(v *validator.CustomValidator) *Ingestor {
	if v == nil {
		v = validator.New()
	}
	return &Ingestor{validator: v}
}

// Parse decodes raw and checks it belongs to callID. Syntax errors report
// "invalid json", any schema violation "invalid payload". Unknown keys are ignored.
func (i *Ingestor) Parse(raw []byte, callID uuid.UUID) (*ClientSegment, error) {
	if !json.Valid(raw) {
		return nil, &IngestError{Msg: MsgInvalidJSON}
	}

	var msg ClientSegment
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, &IngestError{Msg: MsgInvalidPayload}
	}
	if err := i.validator.Validate(&msg); err != nil {
		return nil, &IngestError{Msg: MsgInvalidPayload, Fields: validator.Fields(err)}
	}

	msgCallID, err := uuid.Parse(msg.CallID)
	if err != nil {
		return nil, &IngestError{Msg: MsgInvalidPayload, Fields: []string{"call_id"}}
	}
	if msgCallID != callID {
		return nil, &IngestError{Msg: MsgCallIDMismatch}
	}

	return &msg, nil
}
