package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/vhpooya/remotehub/internal/domain"
)

func newTestStore(t *testing.T) Directory {
	t.Helper()

	dir, err := NewSQLite(filepath.Join(t.TempDir(), "directory.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() {
		if err := dir.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return dir
}

func seedUser(t *testing.T, dir Directory, id int64, role domain.Role, unitID int64) {
	t.Helper()

	now := time.Now()
	err := dir.UpsertUser(context.Background(), &domain.User{
		UserID:      id,
		DisplayName: "user",
		Role:        role,
		UnitID:      unitID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("Failed to seed user %d: %v", id, err)
	}
}

func seedUnit(t *testing.T, dir Directory, id, parentID int64) {
	t.Helper()

	err := dir.UpsertUnit(context.Background(), &domain.OrgUnit{ID: id, ParentID: parentID, Name: "unit"})
	if err != nil {
		t.Fatalf("Failed to seed unit %d: %v", id, err)
	}
}

func TestSQLiteStore_GetUser(t *testing.T) {
	dir := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	want := &domain.User{
		UserID:      7,
		DisplayName: "Dana",
		PhoneNumber: "+15550007",
		Role:        domain.RoleAdmin,
		UnitID:      2,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := dir.UpsertUser(ctx, want); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	got, err := dir.GetUser(ctx, 7)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.DisplayName != "Dana" || got.PhoneNumber != "+15550007" || got.Role != domain.RoleAdmin || got.UnitID != 2 {
		t.Errorf("Unexpected user: %+v", got)
	}
}

func TestSQLiteStore_GetUserNotFound(t *testing.T) {
	dir := newTestStore(t)

	_, err := dir.GetUser(context.Background(), 99)
	if !errdefs.IsNotFound(err) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

func TestSQLiteStore_UpsertUserUpdates(t *testing.T) {
	dir := newTestStore(t)
	ctx := context.Background()

	seedUser(t, dir, 1, domain.RoleUser, 0)
	seedUser(t, dir, 1, domain.RoleAdmin, 3)

	got, err := dir.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Role != domain.RoleAdmin || got.UnitID != 3 {
		t.Errorf("Expected updated role/unit, got %+v", got)
	}
}

func TestSQLiteStore_CanCommunicate(t *testing.T) {
	dir := newTestStore(t)
	ctx := context.Background()

	// Unit 1 is the parent of unit 2; unit 3 is unrelated.
	seedUnit(t, dir, 1, 0)
	seedUnit(t, dir, 2, 1)
	seedUnit(t, dir, 3, 0)

	seedUser(t, dir, 10, domain.RoleUser, 1)
	seedUser(t, dir, 11, domain.RoleUser, 1)
	seedUser(t, dir, 20, domain.RoleUser, 2)
	seedUser(t, dir, 30, domain.RoleUser, 3)
	seedUser(t, dir, 40, domain.RoleUser, 0)

	tests := []struct {
		name     string
		from, to int64
		want     bool
	}{
		{"same unit", 10, 11, true},
		{"parent to child", 10, 20, true},
		{"child to parent", 20, 10, true},
		{"unrelated units", 10, 30, false},
		{"sender without unit", 40, 10, true},
		{"target without unit", 10, 40, true},
		{"unknown sender", 99, 10, false},
		{"unknown target", 10, 99, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dir.CanCommunicate(ctx, tt.from, tt.to, domain.CommNotification)
			if err != nil {
				t.Fatalf("CanCommunicate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanCommunicate(%d,%d) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSQLiteStore_Grants(t *testing.T) {
	dir := newTestStore(t)
	ctx := context.Background()

	seedUnit(t, dir, 1, 0)
	seedUnit(t, dir, 3, 0)
	seedUser(t, dir, 10, domain.RoleUser, 1)
	seedUser(t, dir, 30, domain.RoleUser, 3)

	// A grant opens the path for its kind only, in its direction only.
	err := dir.AddGrant(ctx, domain.CommGrant{FromUnitID: 1, ToUnitID: 3, Kind: domain.CommSms})
	if err != nil {
		t.Fatalf("AddGrant failed: %v", err)
	}

	if ok, _ := dir.CanCommunicate(ctx, 10, 30, domain.CommSms); !ok {
		t.Error("Expected grant to allow sms")
	}
	if ok, _ := dir.CanCommunicate(ctx, 10, 30, domain.CommCall); ok {
		t.Error("Expected other kinds to stay denied")
	}
	if ok, _ := dir.CanCommunicate(ctx, 30, 10, domain.CommSms); ok {
		t.Error("Expected reverse direction to stay denied")
	}

	if err := dir.RevokeGrant(ctx, 1, 3, domain.CommSms); err != nil {
		t.Fatalf("RevokeGrant failed: %v", err)
	}
	if ok, _ := dir.CanCommunicate(ctx, 10, 30, domain.CommSms); ok {
		t.Error("Expected revoked grant to deny")
	}
}

func TestSQLiteStore_ExpiredGrant(t *testing.T) {
	dir := newTestStore(t)
	ctx := context.Background()

	seedUnit(t, dir, 1, 0)
	seedUnit(t, dir, 3, 0)
	seedUser(t, dir, 10, domain.RoleUser, 1)
	seedUser(t, dir, 30, domain.RoleUser, 3)

	err := dir.AddGrant(ctx, domain.CommGrant{
		FromUnitID: 1,
		ToUnitID:   3,
		Kind:       domain.CommCall,
		ExpiresAt:  time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("AddGrant failed: %v", err)
	}

	if ok, _ := dir.CanCommunicate(ctx, 10, 30, domain.CommCall); ok {
		t.Error("Expected expired grant to deny")
	}

	// Refreshing the expiry reopens the path.
	err = dir.AddGrant(ctx, domain.CommGrant{
		FromUnitID: 1,
		ToUnitID:   3,
		Kind:       domain.CommCall,
		ExpiresAt:  time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("AddGrant refresh failed: %v", err)
	}
	if ok, _ := dir.CanCommunicate(ctx, 10, 30, domain.CommCall); !ok {
		t.Error("Expected refreshed grant to allow")
	}
}
