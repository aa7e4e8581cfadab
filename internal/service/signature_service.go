package service

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// loginMessageFormat is the canonical message a wallet signs. The fixed
// wording scopes signatures to the login flow; the nonce scopes them to a
// single handshake.
const loginMessageFormat = "Sign this message to login to TraceBloom. Nonce: %s"

// EthSignatureVerifier implements ports.SignatureVerifier using Ethereum
// personal_sign (EIP-191) ECDSA public key recovery.
type EthSignatureVerifier struct{}

// NewEthSignatureVerifier creates a new Ethereum signature verifier.
func NewEthSignatureVerifier() *EthSignatureVerifier {
	return &EthSignatureVerifier{}
}

// BuildLoginMessage returns the canonical login message for a nonce.
func (s *EthSignatureVerifier) BuildLoginMessage(nonce string) string {
	return fmt.Sprintf(loginMessageFormat, nonce)
}

// Verify recovers the signing address from (message, signature) and compares
// it to walletAddress case-insensitively. A malformed signature is a
// verification failure, not an internal error.
func (s *EthSignatureVerifier) Verify(walletAddress string, message string, signature string) (bool, error) {
	if !common.IsHexAddress(walletAddress) {
		return false, fmt.Errorf("invalid wallet address: %q", walletAddress)
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return false, nil
	}
	if len(sig) != crypto.SignatureLength {
		return false, nil
	}

	// Wallets emit the recovery id as 27/28; secp256k1 recovery wants 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	hash := personalSignHash(message)
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return false, nil
	}

	recovered := crypto.PubkeyToAddress(*pub)
	return strings.EqualFold(recovered.Hex(), walletAddress), nil
}

// personalSignHash applies the EIP-191 personal message prefix and returns
// the keccak256 digest wallets actually sign.
func personalSignHash(message string) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return crypto.Keccak256([]byte(prefixed))
}
