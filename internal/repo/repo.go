// internal/repo/repo.go
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
	"github.com/Mike-Sabalan-Automation/workorders/internal/storage"
)

// Repo defines the methods the rest of the app uses against Postgres: the
// work-orders collection (the storage.Remote contract) plus users and
// local credentials for auth.
type Repo interface {
	storage.Remote

	UpsertUserByVerifiedEmail(ctx context.Context, email, name string, admin bool, orgID string) (models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserClaims(ctx context.Context, id uuid.UUID) (orgID string, admin bool, err error)

	CreateLocalCredential(ctx context.Context, uid uuid.UUID, username, phc string) error
	GetLocalCredentialByUsername(ctx context.Context, username string) (models.LocalCredential, models.User, error)

	UserHasTOTP(ctx context.Context, uid uuid.UUID) bool
	SetTOTPSecret(ctx context.Context, uid uuid.UUID, secret, issuer, label string) error
	GetTOTPSecret(ctx context.Context, uid uuid.UUID) (string, bool)
}

// pgRepo wraps the pgx pool.
type pgRepo struct{ pool *pgxpool.Pool }

func New(pool *pgxpool.Pool) Repo { return &pgRepo{pool: pool} }

// EnsureSchema creates the tables if they are missing. Idempotent; the
// backend is expected to layer row-level security policies on work_orders
// in real deployments.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	_, err := pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS users (
		id         UUID PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		name       TEXT,
		is_admin   BOOLEAN NOT NULL DEFAULT FALSE,
		org_id     TEXT NOT NULL DEFAULT 'org_default',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS local_credentials (
		user_id       UUID NOT NULL REFERENCES users(id),
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS totp_secrets (
		user_id UUID PRIMARY KEY REFERENCES users(id),
		secret  TEXT NOT NULL,
		issuer  TEXT,
		label   TEXT
	);

	CREATE TABLE IF NOT EXISTS work_orders (
		id              BIGSERIAL PRIMARY KEY,
		org_id          TEXT NOT NULL,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		assigned_to     TEXT NOT NULL DEFAULT '',
		priority        TEXT NOT NULL DEFAULT 'medium',
		status          TEXT NOT NULL DEFAULT 'open',
		due_date        TEXT NOT NULL DEFAULT '',
		estimated_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_by      TEXT NOT NULL DEFAULT '',
		created_date    TIMESTAMPTZ NOT NULL,
		updated_date    TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS work_orders_org_idx ON work_orders (org_id);
	CREATE INDEX IF NOT EXISTS work_orders_assigned_idx ON work_orders (org_id, assigned_to);
	`)
	return err
}
