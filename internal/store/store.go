// Package store provides the directory-store client: user profiles, the
// organizational-unit hierarchy and typed communication grants. The store is
// an external collaborator of the real-time core; nothing about live
// connections or delivered notifications is persisted here.
package store

import (
	"context"

	"github.com/vhpooya/remotehub/internal/domain"
)

// Directory is the interface the real-time core depends on for identity,
// role and communication-permission lookups.
type Directory interface {
	// GetUser retrieves a user profile. A missing user yields an error
	// classified as not-found.
	GetUser(ctx context.Context, userID int64) (*domain.User, error)

	// UpsertUser creates or updates a user profile.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpsertUnit creates or updates an organizational unit.
	UpsertUnit(ctx context.Context, unit *domain.OrgUnit) error

	// AddGrant records a directional communication grant between units.
	AddGrant(ctx context.Context, grant domain.CommGrant) error

	// RevokeGrant removes a grant. Revoking a missing grant is a no-op.
	RevokeGrant(ctx context.Context, fromUnitID, toUnitID int64, kind string) error

	// CanCommunicate reports whether a user may send the given
	// communication kind to another user under the org-unit permission
	// schema: same unit, ancestor/descendant units, or an unexpired
	// directional grant.
	CanCommunicate(ctx context.Context, fromUserID, toUserID int64, kind string) (bool, error)

	// Ping verifies store connectivity.
	Ping(ctx context.Context) error

	// Close closes the underlying connection.
	Close() error
}
