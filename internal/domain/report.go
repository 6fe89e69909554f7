package domain

import "time"

// CountBucket is a labelled count used by dashboard reports.
type CountBucket struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Count int64  `json:"count"`
}

// AmountBucket is a labelled monetary sum.
type AmountBucket struct {
	Key         string `json:"key"`
	Count       int64  `json:"count"`
	AmountCents int64  `json:"amount_cents"`
}

// MonthlyCount is the number of cases registered in a calendar month.
type MonthlyCount struct {
	Month time.Time `json:"month"`
	Count int64     `json:"count"`
}

// DashboardReport is the admin overview.
type DashboardReport struct {
	GeneratedAt         time.Time             `json:"generated_at"`
	From                time.Time             `json:"from"`
	To                  time.Time             `json:"to"`
	TotalCases          int64                 `json:"total_cases"`
	CasesByStatus       []CountBucket         `json:"cases_by_status"`
	CasesByCategory     []CountBucket         `json:"cases_by_category"`
	CasesByOffice       []CountBucket         `json:"cases_by_office"`
	AppealsByStatus     []CountBucket         `json:"appeals_by_status"`
	PaymentsByStatus    []AmountBucket        `json:"payments_by_status"`
	CoordinatorWorkload []CoordinatorWorkload `json:"coordinator_workload"`
	MonthlyRegistration []MonthlyCount        `json:"monthly_registrations"`
}
