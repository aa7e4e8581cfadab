package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"tracebloom/internal/core/domain"
	"tracebloom/internal/core/ports"
	"tracebloom/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	identityRepo ports.IdentityRepository
	challenges   ports.ChallengeStore
	sigVerifier  ports.SignatureVerifier
	hashSvc      ports.HashService
	tokenSvc     ports.TokenService
	challengeTTL time.Duration
	log          zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	identityRepo ports.IdentityRepository,
	challenges ports.ChallengeStore,
	sigVerifier ports.SignatureVerifier,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	challengeTTL time.Duration,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		identityRepo: identityRepo,
		challenges:   challenges,
		sigVerifier:  sigVerifier,
		hashSvc:      hashSvc,
		tokenSvc:     tokenSvc,
		challengeTTL: challengeTTL,
		log:          log,
	}
}

// Signup creates a new identity from email+password and issues a token.
func (s *AuthServiceImpl) Signup(ctx context.Context, req ports.SignupRequest) (*ports.AuthResult, error) {
	existing, err := s.identityRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	identity := &domain.Identity{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.identityRepo.Create(ctx, identity); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create identity: %w", err))
	}

	s.log.Info().
		Str("identity_id", identity.ID.String()).
		Str("role", string(identity.Role)).
		Msg("identity registered")

	return s.issueToken(identity)
}

// Login validates email+password credentials and issues a token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	identity, err := s.identityRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find identity: %w", err))
	}
	if identity == nil || identity.PasswordHash == "" {
		return nil, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, identity.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return nil, apperror.ErrInvalidCredentials()
	}

	return s.issueToken(identity)
}

// IssueWalletChallenge issues a single-use signing challenge for a wallet.
// Any prior outstanding challenge for the address is superseded.
func (s *AuthServiceImpl) IssueWalletChallenge(ctx context.Context, req ports.NonceRequest) (*domain.Challenge, error) {
	wallet := strings.ToLower(req.WalletAddress)

	byEmail, err := s.identityRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find identity by email: %w", err))
	}
	if byEmail != nil {
		if byEmail.Role != req.Role {
			return nil, apperror.ErrRoleMismatch()
		}
		if byEmail.HasWallet() && !strings.EqualFold(*byEmail.WalletAddress, wallet) {
			return nil, apperror.ErrIdentityConflict()
		}
	}

	byWallet, err := s.identityRepo.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find identity by wallet: %w", err))
	}
	if byWallet != nil && !strings.EqualFold(byWallet.Email, req.Email) {
		return nil, apperror.ErrIdentityConflict()
	}

	nonce, err := generateNonce()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate nonce: %w", err))
	}

	now := time.Now().UTC()
	challenge := &domain.Challenge{
		WalletAddress: wallet,
		Email:         req.Email,
		Role:          req.Role,
		Nonce:         nonce,
		IssuedAt:      now,
		ExpiresAt:     now.Add(s.challengeTTL),
	}

	if err := s.challenges.Put(ctx, challenge, s.challengeTTL); err != nil {
		return nil, apperror.ErrChallengeStoreError(fmt.Errorf("store challenge: %w", err))
	}

	s.log.Debug().
		Str("wallet", wallet).
		Time("expires_at", challenge.ExpiresAt).
		Msg("wallet challenge issued")

	return challenge, nil
}

// VerifyWallet consumes the wallet's challenge, verifies the signature over
// the canonical login message, and on success binds the wallet to its
// identity (creating one if needed) and issues a token.
//
// The challenge is consumed before verification: a failed attempt burns the
// nonce and the client must restart the handshake.
func (s *AuthServiceImpl) VerifyWallet(ctx context.Context, req ports.VerifyRequest) (*ports.AuthResult, error) {
	wallet := strings.ToLower(req.WalletAddress)

	challenge, err := s.challenges.Consume(ctx, wallet)
	if err != nil {
		return nil, apperror.ErrChallengeStoreError(fmt.Errorf("consume challenge: %w", err))
	}
	if challenge == nil {
		return nil, apperror.ErrNoActiveChallenge()
	}
	if challenge.IsExpired(time.Now().UTC()) {
		return nil, apperror.ErrChallengeExpired()
	}

	message := s.sigVerifier.BuildLoginMessage(challenge.Nonce)
	ok, err := s.sigVerifier.Verify(req.WalletAddress, message, req.Signature)
	if err != nil || !ok {
		return nil, apperror.ErrInvalidSignature()
	}

	identity, err := s.identityRepo.GetByEmail(ctx, challenge.Email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find identity: %w", err))
	}

	switch {
	case identity == nil:
		now := time.Now().UTC()
		identity = &domain.Identity{
			ID:            uuid.New(),
			Email:         challenge.Email,
			WalletAddress: &wallet,
			Role:          challenge.Role,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.identityRepo.Create(ctx, identity); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create identity: %w", err))
		}
	case identity.Role != challenge.Role:
		return nil, apperror.ErrRoleMismatch()
	case !identity.HasWallet():
		if err := s.identityRepo.BindWallet(ctx, identity.ID, wallet); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("bind wallet: %w", err))
		}
		identity.WalletAddress = &wallet
	case !strings.EqualFold(*identity.WalletAddress, wallet):
		return nil, apperror.ErrIdentityConflict()
	}

	s.log.Info().
		Str("identity_id", identity.ID.String()).
		Str("wallet", wallet).
		Msg("wallet login verified")

	return s.issueToken(identity)
}

func (s *AuthServiceImpl) issueToken(identity *domain.Identity) (*ports.AuthResult, error) {
	token, expiresAt, err := s.tokenSvc.Generate(identity)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}
	return &ports.AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Identity:  identity,
	}, nil
}

// generateNonce returns 32 random bytes hex-encoded (64 chars).
func generateNonce() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
