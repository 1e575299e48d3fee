package credential

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"globaltrust/internal/session"
	dErrors "globaltrust/pkg/domain-errors"
)

// DelegationClaims are the claims of a delegation issued by the identity
// provider. The subject is the principal.
type DelegationClaims struct {
	Network string `json:"net,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks delegation signatures and expiry.
type Verifier struct {
	method jwt.SigningMethod
	key    any
	now    func() time.Time
}

// NewHMACVerifier verifies HS256 delegations signed with a shared secret.
// Used with the local replica's development identity provider.
func NewHMACVerifier(secret []byte) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "delegation secret is required")
	}
	return &Verifier{method: jwt.SigningMethodHS256, key: secret, now: time.Now}, nil
}

// NewEd25519Verifier verifies EdDSA delegations against the provider's public key.
func NewEd25519Verifier(pub ed25519.PublicKey) (*Verifier, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid ed25519 public key")
	}
	return &Verifier{method: jwt.SigningMethodEdDSA, key: pub, now: time.Now}, nil
}

// ParseEd25519PublicKey accepts a PEM encoded key or the raw 32 bytes in base64.
func ParseEd25519PublicKey(s string) (ed25519.PublicKey, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-----BEGIN") {
		key, err := jwt.ParseEdPublicKeyFromPEM([]byte(s))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid ed25519 public key")
		}
		pub, ok := key.(ed25519.PublicKey)
		if !ok {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "public key is not ed25519")
		}
		return pub, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid ed25519 public key encoding")
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid ed25519 public key length")
	}
	return ed25519.PublicKey(raw), nil
}

// Verify checks a delegation and returns the credential it grants.
func (v *Verifier) Verify(token string) (session.Credential, error) {
	if token == "" {
		return session.Credential{}, dErrors.New(dErrors.CodeUnauthorized, "empty delegation")
	}
	claims := new(DelegationClaims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != v.method.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.key, nil
	},
		jwt.WithValidMethods([]string{v.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return session.Credential{}, &dErrors.Error{Code: dErrors.CodeUnauthorized, Message: "delegation expired", Err: ErrDelegationExpired}
		}
		return session.Credential{}, dErrors.New(dErrors.CodeUnauthorized, "invalid delegation")
	}
	if !parsed.Valid {
		return session.Credential{}, dErrors.New(dErrors.CodeUnauthorized, "invalid delegation")
	}
	if claims.Subject == "" {
		return session.Credential{}, dErrors.New(dErrors.CodeUnauthorized, "delegation has no principal")
	}

	return session.Credential{
		Principal: claims.Subject,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ErrDelegationExpired is wrapped by Verify when the delegation is past its expiry.
var ErrDelegationExpired = errors.New("delegation expired")

// Minter issues delegations. The server never mints; it backs the local
// development provider, cmd/tokengen and tests.
type Minter struct {
	method  jwt.SigningMethod
	key     any
	network string
	ttl     time.Duration
}

func NewHMACMinter(secret []byte, network string, ttl time.Duration) *Minter {
	return &Minter{method: jwt.SigningMethodHS256, key: secret, network: network, ttl: ttl}
}

func NewEd25519Minter(priv ed25519.PrivateKey, network string, ttl time.Duration) *Minter {
	return &Minter{method: jwt.SigningMethodEdDSA, key: priv, network: network, ttl: ttl}
}

// Mint signs a delegation for principal valid from now for the minter's TTL.
func (m *Minter) Mint(principal string, now time.Time) (string, error) {
	if principal == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "principal is required")
	}
	token := jwt.NewWithClaims(m.method, DelegationClaims{
		Network: m.network,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(m.key)
}
