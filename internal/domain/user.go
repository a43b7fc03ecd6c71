// Package domain contains core domain types for the remote-session service.
package domain

import "time"

// User is a directory profile as resolved from the directory store. The
// store owns the record; this subsystem only reads it for identity, role and
// communication-permission checks.
type User struct {
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Role        Role      `json:"role"`
	UnitID      int64     `json:"unit_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OrgUnit is one node in the organizational hierarchy. ParentID is 0 for a
// root unit.
type OrgUnit struct {
	ID       int64  `json:"id"`
	ParentID int64  `json:"parent_id,omitempty"`
	Name     string `json:"name"`
}

// CommGrant permits communication of a given kind from one unit to another
// until ExpiresAt (zero means no expiry). Grants are directional.
type CommGrant struct {
	FromUnitID int64     `json:"from_unit_id"`
	ToUnitID   int64     `json:"to_unit_id"`
	Kind       string    `json:"kind"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the grant has lapsed at the given instant.
func (g CommGrant) Expired(now time.Time) bool {
	return !g.ExpiresAt.IsZero() && now.After(g.ExpiresAt)
}

// Communication kinds used by permission grants.
const (
	CommNotification = "notification"
	CommCall         = "call"
	CommSms          = "sms"
)
