package service

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signAs produces a wallet-style personal_sign signature over message.
func signAs(t *testing.T, message string) (address, signature string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(personalSignHash(message), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27 // wallets encode V as 27/28

	return crypto.PubkeyToAddress(key.PublicKey).Hex(), "0x" + hex.EncodeToString(sig)
}

func TestEthSignatureVerifier_BuildLoginMessage(t *testing.T) {
	v := NewEthSignatureVerifier()
	msg := v.BuildLoginMessage("deadbeef")
	assert.Equal(t, "Sign this message to login to TraceBloom. Nonce: deadbeef", msg)
}

func TestEthSignatureVerifier_RoundTrip(t *testing.T) {
	v := NewEthSignatureVerifier()
	msg := v.BuildLoginMessage("abc123")
	addr, sig := signAs(t, msg)

	ok, err := v.Verify(addr, msg, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEthSignatureVerifier_CaseInsensitiveAddress(t *testing.T) {
	v := NewEthSignatureVerifier()
	msg := v.BuildLoginMessage("abc123")
	addr, sig := signAs(t, msg)

	ok, err := v.Verify(strings.ToLower(addr), msg, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEthSignatureVerifier_WrongAddress(t *testing.T) {
	v := NewEthSignatureVerifier()
	msg := v.BuildLoginMessage("abc123")
	_, sig := signAs(t, msg)
	otherAddr, _ := signAs(t, msg)

	ok, err := v.Verify(otherAddr, msg, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEthSignatureVerifier_WrongMessage(t *testing.T) {
	v := NewEthSignatureVerifier()
	msg := v.BuildLoginMessage("abc123")
	addr, sig := signAs(t, msg)

	ok, err := v.Verify(addr, v.BuildLoginMessage("different"), sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEthSignatureVerifier_MalformedSignature(t *testing.T) {
	v := NewEthSignatureVerifier()
	msg := v.BuildLoginMessage("abc123")
	addr, _ := signAs(t, msg)

	ok, err := v.Verify(addr, msg, "0xnot-hex")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = v.Verify(addr, msg, "0xdeadbeef") // too short
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEthSignatureVerifier_InvalidAddress(t *testing.T) {
	v := NewEthSignatureVerifier()
	_, err := v.Verify("not-an-address", "msg", "0x00")
	assert.Error(t, err)
}
