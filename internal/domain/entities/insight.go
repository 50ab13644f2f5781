package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Urgency of an insight card
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// InsightCard is the structured coaching card produced by the generation service
type InsightCard struct {
	Title       string   `json:"title"`
	Urgency     Urgency  `json:"urgency"`
	Context     string   `json:"context"`
	Suggestions []string `json:"suggestions"`
	Question    string   `json:"question"`
	Pitfalls    []string `json:"pitfalls"`
	Script      string   `json:"script,omitempty"`
}

// Normalize fills defaults so the outbound event always has a complete shape
func (c *InsightCard) Normalize() {
	switch c.Urgency {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
	default:
		c.Urgency = UrgencyMedium
	}
	if c.Suggestions == nil {
		c.Suggestions = []string{}
	}
	if c.Pitfalls == nil {
		c.Pitfalls = []string{}
	}
}

// InsightModel records which generator produced the card
type InsightModel struct {
	Provider string  `json:"provider"`
	Model    string  `json:"model"`
	Title    string  `json:"title,omitempty"`
	Question string  `json:"question,omitempty"`
	Urgency  Urgency `json:"urgency,omitempty"`
	Channel  string  `json:"channel,omitempty"`
}

// Insight is a persisted coaching insight
type Insight struct {
	ID          uuid.UUID                        `json:"id" gorm:"type:uuid;primary_key"`
	CallID      uuid.UUID                        `json:"call_id" gorm:"type:uuid;not null;index"`
	Type        Category                         `json:"type" gorm:"type:varchar(30);not null"`
	Confidence  float64                          `json:"confidence"`
	Quote       string                           `json:"quote" gorm:"type:text"`
	Suggestions []string                         `json:"suggestions" gorm:"type:jsonb;serializer:json"`
	Model       datatypes.JSONType[InsightModel] `json:"model" gorm:"type:jsonb"`
	DedupeKey   string                           `json:"dedupe_key" gorm:"type:varchar(255);index"`
	CreatedAt   time.Time                        `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Insight) TableName() string {
	return "insights"
}

// BeforeCreate assigns an ID when missing
func (i *Insight) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
