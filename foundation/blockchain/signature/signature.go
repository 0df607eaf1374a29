// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidKey is returned when a hex string can't be parsed as a key.
var ErrInvalidKey = errors.New("invalid key")

// =============================================================================

// Hash returns the hex encoded SHA-256 of the parts concatenated in their
// default string form. No separator is written between the parts, so callers
// decide the field order that gives a value its identity.
func Hash(parts ...any) string {
	var sb strings.Builder
	for _, p := range parts {
		fmt.Fprint(&sb, p)
	}

	hash := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(hash[:])
}

// Sign uses the specified hex private key to sign the hex encoded hash. The
// signature is the 64 byte [R|S] form hex encoded. Signing is deterministic
// (RFC6979) so the same key and hash always produce the same signature.
func Sign(hash string, privateKey string) (string, error) {
	digest, err := decodeHex(hash)
	if err != nil {
		return "", fmt.Errorf("decoding hash: %w", err)
	}

	pk, err := ToPrivateKey(privateKey)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(digest, pk)
	if err != nil {
		return "", err
	}

	// Drop the recovery id, the public key travels as the address.
	return hex.EncodeToString(sig[:crypto.RecoveryIDOffset]), nil
}

// Verify checks the hex signature was produced for the hex hash by the
// private key behind the hex public key.
func Verify(publicKey string, hash string, sig string) bool {
	pub, err := decodeHex(publicKey)
	if err != nil || len(pub) == 0 {
		return false
	}

	digest, err := decodeHex(hash)
	if err != nil || len(digest) != 32 {
		return false
	}

	rs, err := decodeHex(sig)
	if err != nil {
		return false
	}
	if len(rs) == crypto.SignatureLength {
		rs = rs[:crypto.RecoveryIDOffset]
	}
	if len(rs) != crypto.RecoveryIDOffset {
		return false
	}

	return crypto.VerifySignature(pub, digest, rs)
}

// =============================================================================

// PublicKeyToAddress converts the public key into the wallet address used
// on the ledger, the compressed secp256k1 public key hex encoded.
func PublicKeyToAddress(pk ecdsa.PublicKey) string {
	return hex.EncodeToString(crypto.CompressPubkey(&pk))
}

// ToPrivateKey parses a hex private key, with or without the 0x prefix.
func ToPrivateKey(privateKey string) (*ecdsa.PrivateKey, error) {
	b, err := decodeHex(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
	}

	pk, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
	}

	return pk, nil
}

// PrivateKeyToHex returns the hex form of the private key without prefix.
func PrivateKeyToHex(pk *ecdsa.PrivateKey) string {
	return hex.EncodeToString(crypto.FromECDSA(pk))
}

// IsAddress checks the string is a properly formatted wallet address.
func IsAddress(address string) bool {
	b, err := decodeHex(address)
	if err != nil {
		return false
	}

	_, err = crypto.DecompressPubkey(b)
	return err == nil
}

// =============================================================================

// decodeHex accepts both the plain and the 0x prefixed hex forms.
func decodeHex(s string) ([]byte, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return hexutil.Decode(s)
	}
	return hex.DecodeString(s)
}
