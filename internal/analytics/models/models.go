package models

import "time"

// ProjectKPIs is the per-project dashboard headline block.
type ProjectKPIs struct {
	Customers      int `json:"customers"`
	PassesIssued   int `json:"passes_issued"`
	PassesClaimed  int `json:"passes_claimed"`
	VisitsTotal    int `json:"visits_total"`
	VisitsLastWeek int `json:"visits_last_week"`
}

// GlobalKPIs aggregates across all projects.
type GlobalKPIs struct {
	Projects      int `json:"projects"`
	Customers     int `json:"customers"`
	PassesIssued  int `json:"passes_issued"`
	PassesClaimed int `json:"passes_claimed"`
	VisitsTotal   int `json:"visits_total"`
}

// TimeseriesPoint is one bucket of visit activity.
type TimeseriesPoint struct {
	Bucket time.Time `json:"bucket"`
	Visits int       `json:"visits"`
}
