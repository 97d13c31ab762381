package models

import (
	"time"

	id "cartera/pkg/domain"
)

// Customer is a project-scoped identity keyed by the provider subject.
// One person claiming passes in two projects is two customer rows.
type Customer struct {
	ID        id.CustomerID `json:"id"`
	ProjectID id.ProjectID  `json:"project_id"`
	GoogleSub string        `json:"google_sub"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	CreatedAt time.Time     `json:"created_at"`
}

// CustomerWithVisits is the dashboard read model: a customer plus their
// visit activity.
type CustomerWithVisits struct {
	Customer
	VisitCount    int        `json:"visit_count"`
	CurrentPoints int        `json:"current_points"`
	LastVisitAt   *time.Time `json:"last_visit_at,omitempty"`
}
