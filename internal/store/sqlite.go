package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/containerd/errdefs"
	"github.com/vhpooya/remotehub/internal/domain"
	"github.com/vhpooya/remotehub/internal/shared"
	_ "modernc.org/sqlite"
)

// maxUnitDepth bounds ancestry walks so a corrupted parent cycle cannot
// spin forever.
const maxUnitDepth = 32

// SQLiteStore implements Directory using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed directory store.
func NewSQLite(dbPath string) (Directory, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY,
		display_name TEXT NOT NULL,
		phone_number TEXT,
		role TEXT NOT NULL DEFAULT 'user',
		unit_id INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS org_units (
		id INTEGER PRIMARY KEY,
		parent_id INTEGER,
		name TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_org_units_parent ON org_units(parent_id);

	CREATE TABLE IF NOT EXISTS comm_grants (
		from_unit_id INTEGER NOT NULL,
		to_unit_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		expires_at INTEGER,
		PRIMARY KEY (from_unit_id, to_unit_id, kind)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetUser retrieves a user profile by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	query := `
		SELECT user_id, display_name, phone_number, role, unit_id, created_at, updated_at
		FROM users WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user domain.User
	var phone sql.NullString
	var unitID sql.NullInt64
	var role string
	var createdAt, updatedAt int64

	err := row.Scan(
		&user.UserID, &user.DisplayName, &phone,
		&role, &unitID, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, errdefs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.PhoneNumber = phone.String
	user.UnitID = unitID.Int64
	user.Role = domain.Role(role)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user profile.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, display_name, phone_number, role, unit_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		display_name = excluded.display_name,
		phone_number = excluded.phone_number,
		role = excluded.role,
		unit_id = excluded.unit_id,
		updated_at = excluded.updated_at`

	var phone any
	if user.PhoneNumber != "" {
		phone = user.PhoneNumber
	}
	var unitID any
	if user.UnitID != 0 {
		unitID = user.UnitID
	}
	role := user.Role
	if role == "" {
		role = domain.RoleUser
	}

	err := s.execWithRetry(ctx, query,
		user.UserID, user.DisplayName, phone, string(role), unitID,
		user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpsertUnit creates or updates an organizational unit.
func (s *SQLiteStore) UpsertUnit(ctx context.Context, unit *domain.OrgUnit) error {
	query := `
	INSERT INTO org_units (id, parent_id, name)
	VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		parent_id = excluded.parent_id,
		name = excluded.name`

	var parent any
	if unit.ParentID != 0 {
		parent = unit.ParentID
	}

	if err := s.execWithRetry(ctx, query, unit.ID, parent, unit.Name); err != nil {
		return fmt.Errorf("upsert unit: %w", err)
	}
	return nil
}

// AddGrant records a directional communication grant.
func (s *SQLiteStore) AddGrant(ctx context.Context, grant domain.CommGrant) error {
	query := `
	INSERT INTO comm_grants (from_unit_id, to_unit_id, kind, expires_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(from_unit_id, to_unit_id, kind) DO UPDATE SET
		expires_at = excluded.expires_at`

	var expires any
	if !grant.ExpiresAt.IsZero() {
		expires = grant.ExpiresAt.Unix()
	}

	if err := s.execWithRetry(ctx, query, grant.FromUnitID, grant.ToUnitID, grant.Kind, expires); err != nil {
		return fmt.Errorf("add grant: %w", err)
	}
	return nil
}

// RevokeGrant removes a grant if present.
func (s *SQLiteStore) RevokeGrant(ctx context.Context, fromUnitID, toUnitID int64, kind string) error {
	query := `DELETE FROM comm_grants WHERE from_unit_id = ? AND to_unit_id = ? AND kind = ?`
	if err := s.execWithRetry(ctx, query, fromUnitID, toUnitID, kind); err != nil {
		return fmt.Errorf("revoke grant: %w", err)
	}
	return nil
}

// CanCommunicate evaluates the org-unit permission schema for one sender,
// target and communication kind. Users without a unit assignment are
// unrestricted; within the hierarchy, same-unit and ancestor/descendant
// pairs may always communicate, anything else needs an unexpired grant.
func (s *SQLiteStore) CanCommunicate(ctx context.Context, fromUserID, toUserID int64, kind string) (bool, error) {
	from, err := s.GetUser(ctx, fromUserID)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	to, err := s.GetUser(ctx, toUserID)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	if from.UnitID == 0 || to.UnitID == 0 {
		return true, nil
	}
	if from.UnitID == to.UnitID {
		return true, nil
	}

	related, err := s.unitsRelated(ctx, from.UnitID, to.UnitID)
	if err != nil {
		return false, err
	}
	if related {
		return true, nil
	}

	return s.hasGrant(ctx, from.UnitID, to.UnitID, kind)
}

// unitsRelated reports whether one unit is an ancestor of the other.
func (s *SQLiteStore) unitsRelated(ctx context.Context, a, b int64) (bool, error) {
	aAncestor, err := s.isAncestor(ctx, a, b)
	if err != nil || aAncestor {
		return aAncestor, err
	}
	return s.isAncestor(ctx, b, a)
}

// isAncestor walks the parent chain of unit up to the root.
func (s *SQLiteStore) isAncestor(ctx context.Context, ancestor, unit int64) (bool, error) {
	current := unit
	for i := 0; i < maxUnitDepth; i++ {
		var parent sql.NullInt64
		err := s.db.QueryRowContext(ctx, `SELECT parent_id FROM org_units WHERE id = ?`, current).Scan(&parent)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("scan unit parent: %w", err)
		}
		if !parent.Valid {
			return false, nil
		}
		if parent.Int64 == ancestor {
			return true, nil
		}
		current = parent.Int64
	}
	return false, nil
}

func (s *SQLiteStore) hasGrant(ctx context.Context, fromUnitID, toUnitID int64, kind string) (bool, error) {
	query := `
		SELECT expires_at FROM comm_grants
		WHERE from_unit_id = ? AND to_unit_id = ? AND kind = ?`

	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, fromUnitID, toUnitID, kind).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("scan grant: %w", err)
	}

	grant := domain.CommGrant{FromUnitID: fromUnitID, ToUnitID: toUnitID, Kind: kind}
	if expiresAt.Valid {
		grant.ExpiresAt = time.Unix(expiresAt.Int64, 0)
	}
	return !grant.Expired(time.Now()), nil
}

// execWithRetry runs a write statement, retrying briefly on SQLite
// concurrency conflicts.
func (s *SQLiteStore) execWithRetry(ctx context.Context, query string, args ...any) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		_, err = s.db.ExecContext(ctx, query, args...)
		if err == nil || !shared.IsSQLiteConflictError(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return err
}
