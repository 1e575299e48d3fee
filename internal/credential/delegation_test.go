package credential

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "globaltrust/pkg/domain-errors"
)

var devSecret = []byte("local-delegation-secret")

func TestVerifyHMAC(t *testing.T) {
	verifier, err := NewHMACVerifier(devSecret)
	require.NoError(t, err)
	minter := NewHMACMinter(devSecret, "local", time.Hour)

	t.Run("valid delegation yields the principal", func(t *testing.T) {
		now := time.Now()
		token, err := minter.Mint("2vxsx-fae", now)
		require.NoError(t, err)

		cred, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "2vxsx-fae", cred.Principal)
		assert.Equal(t, token, cred.Token)
		assert.WithinDuration(t, now.Add(time.Hour), cred.ExpiresAt, time.Second)
	})

	t.Run("expired delegation", func(t *testing.T) {
		token, err := minter.Mint("2vxsx-fae", time.Now().Add(-2*time.Hour))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDelegationExpired)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewHMACMinter([]byte("someone-else"), "local", time.Hour)
		token, err := other.Mint("2vxsx-fae", time.Now())
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.NotErrorIs(t, err, ErrDelegationExpired)
	})

	t.Run("garbage and empty tokens", func(t *testing.T) {
		_, err := verifier.Verify("not-a-jwt")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		_, err = verifier.Verify("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("mint requires a principal", func(t *testing.T) {
		_, err := minter.Mint("", time.Now())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("empty secret is rejected", func(t *testing.T) {
		_, err := NewHMACVerifier(nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestVerifyEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	verifier, err := NewEd25519Verifier(pub)
	require.NoError(t, err)

	t.Run("valid delegation", func(t *testing.T) {
		token, err := NewEd25519Minter(priv, "ic", time.Hour).Mint("rdmx6-jaaaa-aaaaa-aaadq-cai", time.Now())
		require.NoError(t, err)

		cred, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "rdmx6-jaaaa-aaaaa-aaadq-cai", cred.Principal)
	})

	t.Run("hmac delegation is not accepted by an ed25519 verifier", func(t *testing.T) {
		token, err := NewHMACMinter([]byte(pub), "ic", time.Hour).Mint("attacker", time.Now())
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestParseEd25519PublicKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	t.Run("raw base64", func(t *testing.T) {
		got, err := ParseEd25519PublicKey(base64.StdEncoding.EncodeToString(pub))
		require.NoError(t, err)
		assert.Equal(t, pub, got)
	})

	t.Run("pem", func(t *testing.T) {
		der, err := x509.MarshalPKIXPublicKey(pub)
		require.NoError(t, err)
		block := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

		got, err := ParseEd25519PublicKey(string(block))
		require.NoError(t, err)
		assert.Equal(t, pub, got)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := ParseEd25519PublicKey(base64.StdEncoding.EncodeToString([]byte("short")))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := ParseEd25519PublicKey("%%%")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
