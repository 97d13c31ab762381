// Package domain holds shared domain primitives: typed identifiers used
// across services and stores.
//
// IDs are distinct types over uuid.UUID so the compiler rejects cross-type
// assignment (a PassID can never be passed where a ProjectID is expected).
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type (
	// ProjectID identifies an establishment (tenant) that issues passes.
	ProjectID uuid.UUID
	// UserID identifies an authenticated end user or staff member.
	UserID uuid.UUID
	// SessionID identifies an auth session.
	SessionID uuid.UUID
	// PassID identifies an issued wallet pass record.
	PassID uuid.UUID
	// CustomerID identifies a customer synced from the identity provider.
	CustomerID uuid.UUID
	// VisitID identifies a single registered visit.
	VisitID uuid.UUID
	// LocationID identifies a physical location of a project.
	LocationID uuid.UUID
)

func (id ProjectID) String() string  { return uuid.UUID(id).String() }
func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id SessionID) String() string  { return uuid.UUID(id).String() }
func (id PassID) String() string     { return uuid.UUID(id).String() }
func (id CustomerID) String() string { return uuid.UUID(id).String() }
func (id VisitID) String() string    { return uuid.UUID(id).String() }
func (id LocationID) String() string { return uuid.UUID(id).String() }

func (id ProjectID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id PassID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CustomerID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id VisitID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id LocationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseProjectID validates and returns a ProjectID.
func ParseProjectID(s string) (ProjectID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ProjectID{}, fmt.Errorf("invalid project id: %w", err)
	}
	return ProjectID(u), nil
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user id: %w", err)
	}
	return UserID(u), nil
}

// ParseSessionID validates and returns a SessionID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, fmt.Errorf("invalid session id: %w", err)
	}
	return SessionID(u), nil
}

// ParsePassID validates and returns a PassID.
func ParsePassID(s string) (PassID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return PassID{}, fmt.Errorf("invalid pass id: %w", err)
	}
	return PassID(u), nil
}

// ParseCustomerID validates and returns a CustomerID.
func ParseCustomerID(s string) (CustomerID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CustomerID{}, fmt.Errorf("invalid customer id: %w", err)
	}
	return CustomerID(u), nil
}

// ParseVisitID validates and returns a VisitID.
func ParseVisitID(s string) (VisitID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return VisitID{}, fmt.Errorf("invalid visit id: %w", err)
	}
	return VisitID(u), nil
}

// ParseLocationID validates and returns a LocationID.
func ParseLocationID(s string) (LocationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return LocationID{}, fmt.Errorf("invalid location id: %w", err)
	}
	return LocationID(u), nil
}
