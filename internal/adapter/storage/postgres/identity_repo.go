package postgres

import (
	"context"
	"errors"
	"fmt"

	"tracebloom/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IdentityRepo implements ports.IdentityRepository using PostgreSQL.
type IdentityRepo struct {
	pool Pool
}

// NewIdentityRepo creates a new PostgreSQL identity repository.
func NewIdentityRepo(pool Pool) *IdentityRepo {
	return &IdentityRepo{pool: pool}
}

const identityColumns = `id, email, password_hash, wallet_address, role, created_at, updated_at`

// Create inserts a new identity.
func (r *IdentityRepo) Create(ctx context.Context, identity *domain.Identity) error {
	query := `
		INSERT INTO identities (id, email, password_hash, wallet_address, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		identity.ID,
		identity.Email,
		identity.PasswordHash,
		identity.WalletAddress,
		identity.Role,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting identity: %w", err)
	}
	return nil
}

// GetByID retrieves an identity by its ID. Returns (nil, nil) when not found.
func (r *IdentityRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	return r.scanIdentity(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail retrieves an identity by email. Returns (nil, nil) when not found.
func (r *IdentityRepo) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE email = $1`
	return r.scanIdentity(r.pool.QueryRow(ctx, query, email))
}

// GetByWallet retrieves an identity by wallet address (stored lowercased).
// Returns (nil, nil) when not found.
func (r *IdentityRepo) GetByWallet(ctx context.Context, walletAddress string) (*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE wallet_address = $1`
	return r.scanIdentity(r.pool.QueryRow(ctx, query, walletAddress))
}

// BindWallet attaches a wallet address to an existing identity.
func (r *IdentityRepo) BindWallet(ctx context.Context, id uuid.UUID, walletAddress string) error {
	query := `UPDATE identities SET wallet_address = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, walletAddress, id)
	if err != nil {
		return fmt.Errorf("binding wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("binding wallet: identity %s not found", id)
	}
	return nil
}

func (r *IdentityRepo) scanIdentity(row pgx.Row) (*domain.Identity, error) {
	var identity domain.Identity
	err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.WalletAddress,
		&identity.Role,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning identity: %w", err)
	}
	return &identity, nil
}
