package models

// Ministry is a serving team in the church catalog.
type Ministry struct {
	ID       string `db:"id" json:"id"`
	ChurchID string `db:"church_id" json:"churchId"`
	Name     string `db:"name" json:"name"`
}

// MinistryRole is a role inside a ministry (e.g. "Drums" in Worship).
type MinistryRole struct {
	ID         string `db:"id" json:"id"`
	MinistryID string `db:"ministry_id" json:"ministryId"`
	Name       string `db:"name" json:"name"`
}
