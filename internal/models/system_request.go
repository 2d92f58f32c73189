package models

import (
	"time"

	"github.com/lib/pq"
)

// SystemRequest is a lead captured from the public "request a system" form.
type SystemRequest struct {
	ID            int64          `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	Email         *string        `db:"email" json:"email,omitempty"`
	Phone         *string        `db:"phone" json:"phone,omitempty"`
	BusinessName  *string        `db:"business_name" json:"businessName,omitempty"`
	ProjectType   string         `db:"project_type" json:"projectType"`
	Budget        *string        `db:"budget" json:"budget,omitempty"`
	Timeline      *string        `db:"timeline" json:"timeline,omitempty"`
	Description   string         `db:"description" json:"description"`
	Features      pq.StringArray `db:"features" json:"features"`
	Status        LeadStatus     `db:"status" json:"status"`
	InternalNotes *string        `db:"internal_notes" json:"internalNotes,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}
