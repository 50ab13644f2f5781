package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Speaker identifies who said a segment
type Speaker string

const (
	SpeakerAgent  Speaker = "VENDEDOR"
	SpeakerClient Speaker = "CLIENTE"
)

// SegmentSource identifies the audio source a segment was captured from
type SegmentSource string

const (
	SourceMic SegmentSource = "MIC"
	SourceTab SegmentSource = "TAB"
)

// Segment is one transcribed utterance. Never updated after insert.
type Segment struct {
	ID              uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	CallID          uuid.UUID     `json:"call_id" gorm:"type:uuid;not null;index:idx_segments_call_created"`
	Source          SegmentSource `json:"source" gorm:"type:varchar(10);not null"`
	Speaker         Speaker       `json:"speaker" gorm:"type:varchar(20);not null"`
	StartMs         *int64        `json:"start_ms,omitempty"`
	EndMs           *int64        `json:"end_ms,omitempty"`
	Text            string        `json:"text" gorm:"type:text;not null"`
	ASRConfidence   *float64      `json:"asr_confidence,omitempty"`
	IsEchoSuspected bool          `json:"is_echo_suspected" gorm:"default:false"`
	CreatedAt       time.Time     `json:"created_at" gorm:"autoCreateTime;index:idx_segments_call_created"`
}

// TableName specifies the table name for GORM
func (Segment) TableName() string {
	return "segments"
}

// BeforeCreate assigns an ID when missing
func (s *Segment) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
