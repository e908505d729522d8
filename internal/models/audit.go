package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionTemplateCreate      = "TEMPLATE_CREATE"
	AuditActionTemplateUpdate      = "TEMPLATE_UPDATE"
	AuditActionTemplateDelete      = "TEMPLATE_DELETE"
	AuditActionTemplateDuplicate   = "TEMPLATE_DUPLICATE"
	AuditActionTemplateInstantiate = "TEMPLATE_INSTANTIATE"
	AuditActionAgendaAdd           = "AGENDA_ADD"
	AuditActionAgendaUpdate        = "AGENDA_UPDATE"
	AuditActionAgendaRemove        = "AGENDA_REMOVE"
	AuditActionAgendaReorder       = "AGENDA_REORDER"
	AuditActionAgendaMove          = "AGENDA_MOVE"
	AuditActionPositionAdd         = "POSITION_ADD"
	AuditActionPositionAddBatch    = "POSITION_ADD_BATCH"
	AuditActionPositionQuantity    = "POSITION_QUANTITY"
	AuditActionPositionRemove      = "POSITION_REMOVE"
	AuditActionPositionReorder     = "POSITION_REORDER"
	AuditActionPositionMove        = "POSITION_MOVE"
)

// AuditResourceTemplate is the resource name recorded for template mutations.
const AuditResourceTemplate = "event_template"

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ChurchID   *string   `db:"church_id" json:"church_id,omitempty"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
