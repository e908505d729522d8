package dto

import "github.com/noah-isme/church-ops-api/internal/models"

// TemplateHeaderRequest is the editable header of an event template.
type TemplateHeaderRequest struct {
	Name                   string   `json:"name" validate:"required,max=200"`
	Description            *string  `json:"description" validate:"omitempty,max=4000"`
	EventType              string   `json:"eventType" validate:"required,event_type"`
	LocationID             *string  `json:"locationId"`
	ResponsiblePersonID    *string  `json:"responsiblePersonId"`
	CampusID               *string  `json:"campusId"`
	DefaultStartTime       string   `json:"defaultStartTime" validate:"required,clock"`
	DefaultDurationMinutes int      `json:"defaultDurationMinutes" validate:"required,duration_preset"`
	Visibility             string   `json:"visibility" validate:"required,visibility"`
	InvitedUserIDs         []string `json:"invitedUserIds" validate:"omitempty,max=500,dive,required"`
}

// TemplateListQuery filters the template listing.
type TemplateListQuery struct {
	EventType string `form:"eventType"`
	CampusID  string `form:"campusId"`
	Search    string `form:"search"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// TemplateDetail is a template with its agenda, positions and soft warnings.
type TemplateDetail struct {
	models.EventTemplate
	Agenda    []models.AgendaItem          `json:"agenda"`
	Positions []models.PositionRequirement `json:"positions"`
	Warnings  []string                     `json:"warnings,omitempty"`
}

// ReorderRequest carries every id of a collection in the desired order.
type ReorderRequest struct {
	IDs []string `json:"ids" validate:"omitempty,dive,required"`
}

// MoveRequest moves one item a single step.
type MoveRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}
