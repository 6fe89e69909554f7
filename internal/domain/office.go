package domain

import "time"

// Office is a legal-aid branch. Cases are registered against an office.
type Office struct {
	ID        string
	Code      string
	Name      string
	Region    string
	Zone      string
	Woreda    string
	Kebele    string
	Address   string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
