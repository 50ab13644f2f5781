package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CallStatus represents the lifecycle of a coached call
type CallStatus string

const (
	CallStatusRunning CallStatus = "RUNNING"
	CallStatusEnded   CallStatus = "ENDED"
	CallStatusFailed  CallStatus = "FAILED"
)

// Company owns agents and calls
type Company struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Company) TableName() string {
	return "companies"
}

// BeforeCreate assigns an ID when missing
func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Agent is a salesperson belonging to a company
type Agent struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CompanyID uuid.UUID `json:"company_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email,omitempty" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Agent) TableName() string {
	return "agents"
}

// BeforeCreate assigns an ID when missing
func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Call is a single coached conversation between an agent and a client
type Call struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CompanyID uuid.UUID      `json:"company_id" gorm:"type:uuid;not null;index"`
	AgentID   uuid.UUID      `json:"agent_id" gorm:"type:uuid;not null;index"`
	Title     string         `json:"title,omitempty" gorm:"type:varchar(255)"`
	Metadata  datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	Status    CallStatus     `json:"status" gorm:"type:varchar(20);not null;default:'RUNNING'"`
	StartedAt time.Time      `json:"started_at" gorm:"not null"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
}

// TableName specifies the table name for GORM
func (Call) TableName() string {
	return "calls"
}

// BeforeCreate assigns an ID when missing
func (c *Call) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// NewCall creates a running call
func NewCall(companyID, agentID uuid.UUID, title string, metadata datatypes.JSON) *Call {
	if len(metadata) == 0 {
		metadata = datatypes.JSON("{}")
	}
	return &Call{
		ID:        uuid.New(),
		CompanyID: companyID,
		AgentID:   agentID,
		Title:     title,
		Metadata:  metadata,
		Status:    CallStatusRunning,
		StartedAt: time.Now(),
	}
}

// IsEnded reports whether the call no longer accepts sessions
func (c *Call) IsEnded() bool {
	return c.Status == CallStatusEnded
}
