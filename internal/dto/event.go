package dto

import "github.com/noah-isme/church-ops-api/internal/models"

// EventListQuery filters the event listing by date (YYYY-MM-DD, inclusive).
type EventListQuery struct {
	From     string `form:"from"`
	To       string `form:"to"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// Run sheet formats.
const (
	RunSheetPDF = "pdf"
	RunSheetCSV = "csv"
)

// EventDetail is an event with its agenda, positions and soft warnings.
type EventDetail struct {
	models.Event
	Agenda    []models.EventAgendaItem `json:"agenda"`
	Positions []models.EventPosition   `json:"positions"`
	Warnings  []string                 `json:"warnings,omitempty"`
}

// RunSheet is a rendered event run sheet.
type RunSheet struct {
	Filename    string
	ContentType string
	Content     []byte
}
