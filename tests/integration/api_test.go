package integration

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "tracebloom/internal/adapter/http/handler"
	redisStorage "tracebloom/internal/adapter/storage/redis"
	"tracebloom/internal/service"
	"tracebloom/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/crypto"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack: real HTTP layer, middleware,
// handlers, services, and Redis stores (miniredis), over in-memory repos.

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	// Redis stores
	challengeStore := redisStorage.NewChallengeStore(rdb)

	// Core services with real implementations
	encSvc, err := service.NewAESEncryptionService("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	sigVerifier := service.NewEthSignatureVerifier()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")

	// In-memory repos
	identityRepo := newInMemoryIdentityRepo()
	batchRepo := newInMemoryBatchRepo()
	eventRepo := newInMemoryEventRepo()
	paymentRepo := newInMemoryPaymentRepo()
	shipmentRepo := newInMemoryShipmentRepo()
	reviewRepo := newInMemoryReviewRepo()
	transactor := newInMemoryTransactor()

	// Business services
	log := logger.New("debug", false)
	authSvc := service.NewAuthService(identityRepo, challengeStore, sigVerifier, hashSvc, tokenSvc, 5*time.Minute, log)
	batchSvc := service.NewBatchService(batchRepo, eventRepo, paymentRepo, shipmentRepo, encSvc, transactor, 10, log)
	ledgerSvc := service.NewLedgerService(batchRepo, paymentRepo, shipmentRepo, reviewRepo, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:     authSvc,
		BatchSvc:    batchSvc,
		LedgerSvc:   ledgerSvc,
		SigVerifier: sigVerifier,
		TokenSvc:    tokenSvc,
		Logger:      log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server: server,
		redis:  mr,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// --- Request helpers ---

func doJSON(t *testing.T, app *testApp, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, app.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func signup(t *testing.T, app *testApp, email, role string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    email,
		"password": "StrongPass123!",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["data"].(map[string]interface{})["token"].(string)
}

func signPersonal(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	hash := crypto.Keccak256([]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)))
	sig, err := crypto.Sign(hash, key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return "0x" + hex.EncodeToString(sig)
}

// walletLogin runs the full challenge/response flow for a fresh key pair and
// returns the issued token and the wallet address.
func walletLogin(t *testing.T, app *testApp, email, role string) (string, string) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet := crypto.PubkeyToAddress(key.PublicKey).Hex()

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/wallet/nonce", "", map[string]string{
		"wallet_address": wallet,
		"email":          email,
		"role":           role,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	message := body["data"].(map[string]interface{})["message"].(string)

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/auth/wallet/verify", "", map[string]string{
		"wallet_address": wallet,
		"signature":      signPersonal(t, key, message),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["data"].(map[string]interface{})["token"].(string), wallet
}

func registerBatch(t *testing.T, app *testApp, producerToken string, quantity int64) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/batches", producerToken, map[string]interface{}{
		"crop_type":    "coffee",
		"quantity":     quantity,
		"harvest_date": "2026-08-01",
		"location":     "Da Lat",
		"farmer_name":  "Nguyen Van A",
		"farmer_phone": "+84901234567",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	require.Equal(t, "REGISTERED", data["status"])
	return data["id"].(string)
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIntegration_WalletAuthFlow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token, wallet := walletLogin(t, app, "producer@example.com", "producer")
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, wallet)

	// The challenge was consumed: a replayed verify finds none outstanding.
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/wallet/verify", "", map[string]string{
		"wallet_address": wallet,
		"signature":      "0x" + string(bytes.Repeat([]byte("ab"), 65)),
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_004", body["error_code"])
}

func TestIntegration_WalletAuth_BadSignatureBurnsChallenge(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet := crypto.PubkeyToAddress(key.PublicKey).Hex()

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/wallet/nonce", "", map[string]string{
		"wallet_address": wallet,
		"email":          "burned@example.com",
		"role":           "producer",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	message := body["data"].(map[string]interface{})["message"].(string)

	// Sign the wrong message: verification fails.
	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/auth/wallet/verify", "", map[string]string{
		"wallet_address": wallet,
		"signature":      signPersonal(t, key, "something else entirely"),
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_006", body["error_code"])

	// The failed attempt consumed the challenge: retrying with the correct
	// signature now fails for lack of a challenge.
	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/auth/wallet/verify", "", map[string]string{
		"wallet_address": wallet,
		"signature":      signPersonal(t, key, message),
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_004", body["error_code"])
}

func TestIntegration_WalletAuth_RoleConflict(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	signup(t, app, "settled@example.com", "producer")

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet := crypto.PubkeyToAddress(key.PublicKey).Hex()

	// Same email, different role: refused at challenge issuance.
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/wallet/nonce", "", map[string]string{
		"wallet_address": wallet,
		"email":          "settled@example.com",
		"role":           "consumer",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "BATCH_002", body["error_code"])
}

func TestIntegration_BatchLifecycle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	producerToken, _ := walletLogin(t, app, "farm@example.com", "producer")
	intermediaryToken := signup(t, app, "truck@example.com", "intermediary")
	consumerToken := signup(t, app, "shop@example.com", "consumer")

	batchID := registerBatch(t, app, producerToken, 100)

	// Intermediary sees the batch in its actionable queue.
	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/batches?available=true", intermediaryToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["data"].([]interface{}), 1)

	// Intermediary accepts: REGISTERED -> IN_TRANSIT plus a pending payment.
	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/batches/"+batchID+"/accept", intermediaryToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "IN_TRANSIT", body["data"].(map[string]interface{})["status"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/payments", intermediaryToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payments := body["data"].([]interface{})
	require.Len(t, payments, 1)
	payment := payments[0].(map[string]interface{})
	assert.Equal(t, float64(1000), payment["amount"]) // 100 kg * rate 10
	assert.Equal(t, "PENDING", payment["status"])
	assert.Equal(t, "producer", payment["payer_role"])
	assert.Equal(t, "intermediary", payment["payee_role"])

	// Consumer accepts: IN_TRANSIT -> DELIVERED plus shipment and payment.
	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/batches/"+batchID+"/accept", consumerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "DELIVERED", body["data"].(map[string]interface{})["status"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/shipments", consumerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["data"].([]interface{}), 1)

	// Delivery entitles the consumer to review.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/reviews", consumerToken, map[string]interface{}{
		"batch_id": batchID,
		"rating":   5,
		"title":    "Excellent",
		"comment":  "Fresh and well packed",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// One review per (batch, consumer).
	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/reviews", consumerToken, map[string]interface{}{
		"batch_id": batchID,
		"rating":   4,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "LEDGER_002", body["error_code"])

	// Consumer consumes: DELIVERED -> CONSUMED, terminal.
	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/batches/"+batchID+"/consume", consumerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CONSUMED", body["data"].(map[string]interface{})["status"])

	// Public tracking requires no token and shows the full history.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/batches/"+batchID+"/events", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := body["data"].([]interface{})
	require.Len(t, events, 4)
	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.(map[string]interface{})["action"].(string))
	}
	assert.Equal(t, []string{"register", "accept", "accept", "consume"}, actions)

	// Terminal state: nothing more can happen.
	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/batches/"+batchID+"/consume", consumerToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "BATCH_003", body["error_code"])
}

func TestIntegration_RejectClearsCustodian(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	producerToken := signup(t, app, "farm2@example.com", "producer")
	intermediaryToken := signup(t, app, "truck2@example.com", "intermediary")

	batchID := registerBatch(t, app, producerToken, 50)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/batches/"+batchID+"/reject", intermediaryToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "REJECTED", data["status"])
	assert.Nil(t, data["custodian_id"])

	// A rejected batch never settles a payment.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/payments", intermediaryToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["data"].([]interface{}))
}

func TestIntegration_RoleGates(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	producerToken := signup(t, app, "farm3@example.com", "producer")
	consumerToken := signup(t, app, "shop3@example.com", "consumer")

	batchID := registerBatch(t, app, producerToken, 10)

	// A consumer cannot register batches.
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/batches", consumerToken, map[string]interface{}{
		"crop_type":    "coffee",
		"quantity":     10,
		"harvest_date": "2026-08-01",
		"location":     "Da Lat",
		"farmer_name":  "A",
		"farmer_phone": "+84901234567",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// A producer has no accept edge at all.
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/batches/"+batchID+"/accept", producerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "BATCH_002", body["error_code"])

	// A consumer cannot accept straight from REGISTERED: the consumer edge
	// starts at IN_TRANSIT.
	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/batches/"+batchID+"/accept", consumerToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "BATCH_003", body["error_code"])

	// No token at all.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/batches/"+batchID+"/accept", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
