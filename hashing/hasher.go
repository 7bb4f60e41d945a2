// Package hashing - credential hashing engine
package hashing

import (
	"context"
	"crypto/pbkdf2"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	cgoCrypto "github.com/alwitt/cgoutils/crypto"
	"github.com/alwitt/goutils"
	"github.com/alwitt/securepass/models"
	"github.com/apex/log"
)

const (
	// saltLen salt length in bytes before hex encoding
	saltLen = 16
	// iterations PBKDF2 iteration count
	iterations = 100000
	// digestLen derived digest length in bytes
	digestLen = sha256.Size
	// tokenSeparator separates the digest and salt halves of a token
	tokenSeparator = ":"
)

/*
Hasher the system's credential hashing engine. It is solely responsible for
deriving and verifying the stored tokens of account passwords and security
question answers.

A token has the form `digesthex:salthex`, where the digest is
PBKDF2-HMAC-SHA256 over the secret with the hex-encoded salt as KDF salt.
*/
type Hasher interface {
	/*
		HashSecret derive the storage token of a secret

			@param ctx context.Context - execution context
			@param secret string - the secret to protect
			@returns the storage token
	*/
	HashSecret(ctx context.Context, secret string) (string, error)

	/*
		VerifySecret verify a secret against a stored token

		The comparison between the stored and recomputed digests is constant
		time. A malformed token returns ErrCorruptCredential; callers treat
		that as verification failure.

			@param ctx context.Context - execution context
			@param token string - the stored token
			@param secret string - the secret to check
			@returns whether the secret matches
	*/
	VerifySecret(ctx context.Context, token string, secret string) (bool, error)
}

// pbkdf2Hasher implements Hasher
type pbkdf2Hasher struct {
	goutils.Component

	crypto cgoCrypto.Engine
}

/*
NewHasher define new credential hashing engine

	@returns engine instance
*/
func NewHasher() (Hasher, error) {
	// Prepare core crypto engine for salt generation
	engine, err := cgoCrypto.NewEngine(log.Fields{
		"package": "cgoutils", "module": "crypto", "component": "crypto-engine",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare core cryptography [%w]", err)
	}

	logTags := log.Fields{"module": "hashing", "component": "credential-hasher"}

	return &pbkdf2Hasher{
		Component: goutils.Component{LogTags: logTags},
		crypto:    engine,
	}, nil
}

// deriveDigest recompute the digest half of a token for a given salt
func (h *pbkdf2Hasher) deriveDigest(secret string, saltHex string) (string, error) {
	digest, err := pbkdf2.Key(sha256.New, secret, []byte(saltHex), iterations, digestLen)
	if err != nil {
		return "", fmt.Errorf("key derivation failed [%w]", err)
	}
	return hex.EncodeToString(digest), nil
}

/*
HashSecret derive the storage token of a secret

	@param ctx context.Context - execution context
	@param secret string - the secret to protect
	@returns the storage token
*/
func (h *pbkdf2Hasher) HashSecret(_ context.Context, secret string) (string, error) {
	// RNG for generating the salt
	rng := h.crypto.GetRNGReader()

	salt := make([]byte, saltLen)
	if n, err := rng.Read(salt); err != nil {
		return "", fmt.Errorf("failed to read %d bytes from RNG [%w]", saltLen, err)
	} else if n != saltLen {
		return "", fmt.Errorf("did not get %d bytes from RNG, only %d", saltLen, n)
	}

	saltHex := hex.EncodeToString(salt)
	digestHex, err := h.deriveDigest(secret, saltHex)
	if err != nil {
		return "", err
	}

	return digestHex + tokenSeparator + saltHex, nil
}

/*
VerifySecret verify a secret against a stored token

	@param ctx context.Context - execution context
	@param token string - the stored token
	@param secret string - the secret to check
	@returns whether the secret matches
*/
func (h *pbkdf2Hasher) VerifySecret(_ context.Context, token string, secret string) (bool, error) {
	parts := strings.SplitN(token, tokenSeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false, fmt.Errorf("token is missing its separator [%w]", models.ErrCorruptCredential)
	}

	digestHex, err := h.deriveDigest(secret, parts[1])
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare([]byte(digestHex), []byte(parts[0])) == 1, nil
}
