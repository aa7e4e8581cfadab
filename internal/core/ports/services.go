package ports

import (
	"context"
	"time"

	"tracebloom/internal/core/domain"

	"github.com/google/uuid"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// SignatureVerifier recovers the signing wallet address from a signed
// message and checks it against a claimed address.
type SignatureVerifier interface {
	// BuildLoginMessage returns the canonical message a wallet signs for
	// the given nonce. The fixed prefix scopes signatures to login only.
	BuildLoginMessage(nonce string) string
	// Verify reports whether signature over message was produced by the
	// key behind walletAddress. Comparison is case-insensitive.
	Verify(walletAddress string, message string, signature string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(identity *domain.Identity) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	IdentityID    uuid.UUID
	Email         string
	Role          domain.Role
	WalletAddress string
}

// ChallengeStore manages single-use signing challenges, one live per wallet.
type ChallengeStore interface {
	// Put stores the challenge under its wallet address with the given TTL,
	// replacing any prior challenge for that address.
	Put(ctx context.Context, challenge *domain.Challenge, ttl time.Duration) error
	// Consume atomically fetches and deletes the challenge for the address.
	// Returns (nil, nil) when no live challenge exists.
	Consume(ctx context.Context, walletAddress string) (*domain.Challenge, error)
}

// RateLimitStore provides fixed-window request counting.
type RateLimitStore interface {
	// Increment bumps the counter for key in the current window and returns
	// the new count.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// --- Service Ports (Business Logic) ---

// AuthService defines authentication business logic.
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	IssueWalletChallenge(ctx context.Context, req NonceRequest) (*domain.Challenge, error)
	VerifyWallet(ctx context.Context, req VerifyRequest) (*AuthResult, error)
}

// SignupRequest holds validated input for email+password registration.
type SignupRequest struct {
	Email    string
	Password string
	Role     domain.Role
}

// NonceRequest holds validated input for challenge issuance.
type NonceRequest struct {
	WalletAddress string
	Email         string
	Role          domain.Role
}

// VerifyRequest holds validated input for wallet signature verification.
type VerifyRequest struct {
	WalletAddress string
	Signature     string
}

// AuthResult is the outcome of any successful authentication flow.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  *domain.Identity
}

// BatchService defines the batch lifecycle business logic.
type BatchService interface {
	Register(ctx context.Context, req RegisterBatchRequest) (*domain.Batch, error)
	Accept(ctx context.Context, batchID, actorID uuid.UUID, actorRole domain.Role) (*domain.Batch, error)
	Reject(ctx context.Context, batchID, actorID uuid.UUID, actorRole domain.Role) (*domain.Batch, error)
	Consume(ctx context.Context, batchID, actorID uuid.UUID, actorRole domain.Role) (*domain.Batch, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Batch, error)
	ListEvents(ctx context.Context, batchID uuid.UUID) ([]domain.BatchEvent, error)
	// ListForRole returns the batches visible to the caller. With
	// actionable=true it returns only the caller's actionable queue.
	ListForRole(ctx context.Context, identityID uuid.UUID, role domain.Role, actionable bool) ([]domain.Batch, error)
}

// RegisterBatchRequest holds validated input for batch registration.
type RegisterBatchRequest struct {
	ProducerID  uuid.UUID
	CropType    string
	Quantity    int64
	HarvestDate time.Time
	Location    string
	Description *string
	ImageRef    *string
	FarmerName  string
	FarmerPhone string // Plaintext; encrypted before storage
}

// LedgerService defines payment/shipment/review read and write logic.
type LedgerService interface {
	SubmitReview(ctx context.Context, req SubmitReviewRequest) (*domain.Review, error)
	ListReviews(ctx context.Context, batchID uuid.UUID) ([]domain.Review, error)
	ListPayments(ctx context.Context, role domain.Role) ([]domain.Payment, error)
	ListShipments(ctx context.Context, consumerID uuid.UUID) ([]domain.Shipment, error)
}

// SubmitReviewRequest holds validated input for review submission.
type SubmitReviewRequest struct {
	BatchID    uuid.UUID
	ConsumerID uuid.UUID
	Rating     int
	Title      string
	Comment    string
}
