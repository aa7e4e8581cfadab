package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracebloom/internal/core/domain"
	"tracebloom/internal/core/ports"
	"tracebloom/internal/core/ports/mocks"
	"tracebloom/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type authTestDeps struct {
	svc          *AuthServiceImpl
	identityRepo *mocks.MockIdentityRepository
	challenges   *mocks.MockChallengeStore
	sigVerifier  *mocks.MockSignatureVerifier
	hashSvc      *mocks.MockHashService
	tokenSvc     *mocks.MockTokenService
	ctrl         *gomock.Controller
}

func setupAuthService(t *testing.T) *authTestDeps {
	ctrl := gomock.NewController(t)
	d := &authTestDeps{
		identityRepo: mocks.NewMockIdentityRepository(ctrl),
		challenges:   mocks.NewMockChallengeStore(ctrl),
		sigVerifier:  mocks.NewMockSignatureVerifier(ctrl),
		hashSvc:      mocks.NewMockHashService(ctrl),
		tokenSvc:     mocks.NewMockTokenService(ctrl),
		ctrl:         ctrl,
	}
	d.svc = NewAuthService(
		d.identityRepo, d.challenges, d.sigVerifier,
		d.hashSvc, d.tokenSvc, 5*time.Minute, zerolog.Nop(),
	)
	return d
}

func assertAppErr(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, code, appErr.Code)
}

const testWallet = "0x742d35cc6634c0532925a3b844bc454e4438f44e"

// ==================== Signup / Login ====================

func TestAuthService_Signup_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := ports.SignupRequest{Email: "farm@example.com", Password: "StrongP@ss123", Role: domain.RoleProducer}

	d.identityRepo.EXPECT().GetByEmail(ctx, req.Email).Return(nil, nil)
	d.hashSvc.EXPECT().Hash(req.Password).Return("$argon2id$hashed", nil)
	d.identityRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.tokenSvc.EXPECT().Generate(gomock.Any()).Return("jwt_token", time.Now().Add(24*time.Hour), nil)

	res, err := d.svc.Signup(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "jwt_token", res.Token)
	assert.Equal(t, domain.RoleProducer, res.Identity.Role)
	assert.NotEqual(t, uuid.Nil, res.Identity.ID)
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	existing := &domain.Identity{Email: "farm@example.com"}
	d.identityRepo.EXPECT().GetByEmail(ctx, "farm@example.com").Return(existing, nil)

	res, err := d.svc.Signup(ctx, ports.SignupRequest{Email: "farm@example.com", Password: "pw", Role: domain.RoleProducer})
	assert.Nil(t, res)
	assertAppErr(t, err, "AUTH_002")
}

func TestAuthService_Login_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	identity := &domain.Identity{
		ID:           uuid.New(),
		Email:        "farm@example.com",
		PasswordHash: "$argon2id$hashed",
		Role:         domain.RoleProducer,
	}

	d.identityRepo.EXPECT().GetByEmail(ctx, "farm@example.com").Return(identity, nil)
	d.hashSvc.EXPECT().Verify("correct_password", "$argon2id$hashed").Return(true, nil)
	d.tokenSvc.EXPECT().Generate(identity).Return("jwt_token", time.Now().Add(24*time.Hour), nil)

	res, err := d.svc.Login(ctx, "farm@example.com", "correct_password")
	require.NoError(t, err)
	assert.Equal(t, "jwt_token", res.Token)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.identityRepo.EXPECT().GetByEmail(ctx, "nobody@example.com").Return(nil, nil)

	_, err := d.svc.Login(ctx, "nobody@example.com", "pw")
	assertAppErr(t, err, "AUTH_001")
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	identity := &domain.Identity{ID: uuid.New(), Email: "farm@example.com", PasswordHash: "$argon2id$hashed"}

	d.identityRepo.EXPECT().GetByEmail(ctx, "farm@example.com").Return(identity, nil)
	d.hashSvc.EXPECT().Verify("wrong", "$argon2id$hashed").Return(false, nil)

	_, err := d.svc.Login(ctx, "farm@example.com", "wrong")
	assertAppErr(t, err, "AUTH_001")
}

func TestAuthService_Login_WalletOnlyIdentity(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	// Created via wallet verification; no password set.
	identity := &domain.Identity{ID: uuid.New(), Email: "w@example.com", PasswordHash: ""}
	d.identityRepo.EXPECT().GetByEmail(ctx, "w@example.com").Return(identity, nil)

	_, err := d.svc.Login(ctx, "w@example.com", "anything")
	assertAppErr(t, err, "AUTH_001")
}

// ==================== IssueWalletChallenge ====================

func TestAuthService_IssueWalletChallenge_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := ports.NonceRequest{WalletAddress: "0x742D35CC6634C0532925A3B844BC454E4438F44E", Email: "c@example.com", Role: domain.RoleConsumer}

	d.identityRepo.EXPECT().GetByEmail(ctx, req.Email).Return(nil, nil)
	d.identityRepo.EXPECT().GetByWallet(ctx, testWallet).Return(nil, nil)
	d.challenges.EXPECT().Put(ctx, gomock.Any(), 5*time.Minute).Return(nil)

	ch, err := d.svc.IssueWalletChallenge(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, ch)
	assert.Equal(t, testWallet, ch.WalletAddress, "wallet should be lower-cased")
	assert.Len(t, ch.Nonce, 64) // 32 bytes hex
	assert.True(t, ch.ExpiresAt.After(ch.IssuedAt))
}

func TestAuthService_IssueWalletChallenge_EmailBoundToOtherWallet(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	otherWallet := "0x1111111111111111111111111111111111111111"
	identity := &domain.Identity{Email: "c@example.com", WalletAddress: &otherWallet, Role: domain.RoleConsumer}

	d.identityRepo.EXPECT().GetByEmail(ctx, "c@example.com").Return(identity, nil)

	_, err := d.svc.IssueWalletChallenge(ctx, ports.NonceRequest{
		WalletAddress: testWallet, Email: "c@example.com", Role: domain.RoleConsumer,
	})
	assertAppErr(t, err, "AUTH_007")
}

func TestAuthService_IssueWalletChallenge_WalletBoundToOtherEmail(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	other := &domain.Identity{Email: "other@example.com", Role: domain.RoleConsumer}

	d.identityRepo.EXPECT().GetByEmail(ctx, "c@example.com").Return(nil, nil)
	d.identityRepo.EXPECT().GetByWallet(ctx, testWallet).Return(other, nil)

	_, err := d.svc.IssueWalletChallenge(ctx, ports.NonceRequest{
		WalletAddress: testWallet, Email: "c@example.com", Role: domain.RoleConsumer,
	})
	assertAppErr(t, err, "AUTH_007")
}

func TestAuthService_IssueWalletChallenge_RoleMismatch(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	identity := &domain.Identity{Email: "c@example.com", Role: domain.RoleProducer}

	d.identityRepo.EXPECT().GetByEmail(ctx, "c@example.com").Return(identity, nil)

	_, err := d.svc.IssueWalletChallenge(ctx, ports.NonceRequest{
		WalletAddress: testWallet, Email: "c@example.com", Role: domain.RoleConsumer,
	})
	assertAppErr(t, err, "BATCH_002")
}

// ==================== VerifyWallet ====================

func activeChallenge() *domain.Challenge {
	now := time.Now().UTC()
	return &domain.Challenge{
		WalletAddress: testWallet,
		Email:         "c@example.com",
		Role:          domain.RoleConsumer,
		Nonce:         "abc123",
		IssuedAt:      now,
		ExpiresAt:     now.Add(5 * time.Minute),
	}
}

func TestAuthService_VerifyWallet_CreatesIdentity(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ch := activeChallenge()

	d.challenges.EXPECT().Consume(ctx, testWallet).Return(ch, nil)
	d.sigVerifier.EXPECT().BuildLoginMessage("abc123").Return("Sign this message to login to TraceBloom. Nonce: abc123")
	d.sigVerifier.EXPECT().Verify(testWallet, gomock.Any(), "0xsig").Return(true, nil)
	d.identityRepo.EXPECT().GetByEmail(ctx, "c@example.com").Return(nil, nil)
	d.identityRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, id *domain.Identity) error {
			assert.Equal(t, "c@example.com", id.Email)
			assert.Equal(t, domain.RoleConsumer, id.Role)
			require.NotNil(t, id.WalletAddress)
			assert.Equal(t, testWallet, *id.WalletAddress)
			return nil
		})
	d.tokenSvc.EXPECT().Generate(gomock.Any()).Return("jwt_token", time.Now().Add(24*time.Hour), nil)

	res, err := d.svc.VerifyWallet(ctx, ports.VerifyRequest{WalletAddress: testWallet, Signature: "0xsig"})
	require.NoError(t, err)
	assert.Equal(t, "jwt_token", res.Token)
}

func TestAuthService_VerifyWallet_BindsWalletToExistingIdentity(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ch := activeChallenge()
	identity := &domain.Identity{ID: uuid.New(), Email: "c@example.com", Role: domain.RoleConsumer}

	d.challenges.EXPECT().Consume(ctx, testWallet).Return(ch, nil)
	d.sigVerifier.EXPECT().BuildLoginMessage("abc123").Return("msg")
	d.sigVerifier.EXPECT().Verify(testWallet, "msg", "0xsig").Return(true, nil)
	d.identityRepo.EXPECT().GetByEmail(ctx, "c@example.com").Return(identity, nil)
	d.identityRepo.EXPECT().BindWallet(ctx, identity.ID, testWallet).Return(nil)
	d.tokenSvc.EXPECT().Generate(gomock.Any()).Return("jwt_token", time.Now().Add(24*time.Hour), nil)

	res, err := d.svc.VerifyWallet(ctx, ports.VerifyRequest{WalletAddress: testWallet, Signature: "0xsig"})
	require.NoError(t, err)
	require.NotNil(t, res.Identity.WalletAddress)
	assert.Equal(t, testWallet, *res.Identity.WalletAddress)
}

func TestAuthService_VerifyWallet_NoActiveChallenge(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.challenges.EXPECT().Consume(ctx, testWallet).Return(nil, nil)

	_, err := d.svc.VerifyWallet(ctx, ports.VerifyRequest{WalletAddress: testWallet, Signature: "0xsig"})
	assertAppErr(t, err, "AUTH_004")
}

func TestAuthService_VerifyWallet_ExpiredChallenge(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ch := activeChallenge()
	ch.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	d.challenges.EXPECT().Consume(ctx, testWallet).Return(ch, nil)

	_, err := d.svc.VerifyWallet(ctx, ports.VerifyRequest{WalletAddress: testWallet, Signature: "0xsig"})
	assertAppErr(t, err, "AUTH_005")
}

func TestAuthService_VerifyWallet_InvalidSignatureBurnsChallenge(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ch := activeChallenge()

	// The consume happens before verification, so the nonce is gone even
	// though the signature check fails. No identity call is expected.
	d.challenges.EXPECT().Consume(ctx, testWallet).Return(ch, nil)
	d.sigVerifier.EXPECT().BuildLoginMessage("abc123").Return("msg")
	d.sigVerifier.EXPECT().Verify(testWallet, "msg", "0xbadsig").Return(false, nil)

	_, err := d.svc.VerifyWallet(ctx, ports.VerifyRequest{WalletAddress: testWallet, Signature: "0xbadsig"})
	assertAppErr(t, err, "AUTH_006")
}

func TestAuthService_VerifyWallet_WalletBoundToOtherIdentity(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ch := activeChallenge()
	otherWallet := "0x1111111111111111111111111111111111111111"
	identity := &domain.Identity{ID: uuid.New(), Email: "c@example.com", Role: domain.RoleConsumer, WalletAddress: &otherWallet}

	d.challenges.EXPECT().Consume(ctx, testWallet).Return(ch, nil)
	d.sigVerifier.EXPECT().BuildLoginMessage("abc123").Return("msg")
	d.sigVerifier.EXPECT().Verify(testWallet, "msg", "0xsig").Return(true, nil)
	d.identityRepo.EXPECT().GetByEmail(ctx, "c@example.com").Return(identity, nil)

	_, err := d.svc.VerifyWallet(ctx, ports.VerifyRequest{WalletAddress: testWallet, Signature: "0xsig"})
	assertAppErr(t, err, "AUTH_007")
}
