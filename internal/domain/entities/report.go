package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReportTotals counts what happened during the call
type ReportTotals struct {
	TotalSegments int   `json:"total_segments"`
	TotalInsights int   `json:"total_insights"`
	DurationMs    int64 `json:"duration_ms"`
}

// ReportModel records which generator wrote the report
type ReportModel struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// ReportData is the structured part of a post-call report
type ReportData struct {
	CallID             string           `json:"call_id"`
	GeneratedAt        time.Time        `json:"generated_at"`
	Summary            ReportTotals     `json:"summary"`
	InsightsByCategory map[Category]int `json:"insights_by_category"`
	Model              ReportModel      `json:"model"`
}

// Report is the post-call summary written when a call is stopped
type Report struct {
	ID        uuid.UUID                       `json:"id" gorm:"type:uuid;primary_key"`
	CallID    uuid.UUID                       `json:"call_id" gorm:"type:uuid;not null;index"`
	Markdown  string                          `json:"report_md" gorm:"column:report_md;type:text;not null"`
	Data      datatypes.JSONType[ReportData]  `json:"report_json" gorm:"column:report_json;type:jsonb"`
	Model     datatypes.JSONType[ReportModel] `json:"model" gorm:"type:jsonb"`
	CreatedAt time.Time                       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Report) TableName() string {
	return "reports"
}

// BeforeCreate assigns an ID when missing
func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
