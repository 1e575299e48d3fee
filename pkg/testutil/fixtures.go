package testutil

import (
	"time"

	"github.com/google/uuid"

	"globaltrust/internal/session"
)

// TestPrincipals are stable principals for deterministic test data.
var TestPrincipals = struct {
	Alice string
	Bob   string
}{
	Alice: "2vxsx-fae",
	Bob:   "rrkah-fqaaa-aaaaa-aaaaq-cai",
}

// TestCanisters are the endpoint ids used by the fake backend.
var TestCanisters = struct {
	Identity     string
	Assets       string
	Marketplace  string
	Lending      string
	Verification string
}{
	Identity:     "bkyz2-fmaaa-aaaaa-qaaaq-cai",
	Assets:       "bd3sg-teaaa-aaaaa-qaaba-cai",
	Marketplace:  "be2us-64aaa-aaaaa-qaabq-cai",
	Lending:      "br5f7-7uaaa-aaaaa-qaaca-cai",
	Verification: "bw4dl-smaaa-aaaaa-qaacq-cai",
}

// CredentialBuilder provides a fluent interface for building test credentials.
type CredentialBuilder struct {
	cred session.Credential
}

// NewCredentialBuilder creates a builder with sensible defaults: Alice,
// an opaque token and a one hour expiry.
func NewCredentialBuilder() *CredentialBuilder {
	return &CredentialBuilder{
		cred: session.Credential{
			Principal: TestPrincipals.Alice,
			Token:     "delegation-" + uuid.NewString(),
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
}

func (b *CredentialBuilder) WithPrincipal(principal string) *CredentialBuilder {
	b.cred.Principal = principal
	return b
}

func (b *CredentialBuilder) WithToken(token string) *CredentialBuilder {
	b.cred.Token = token
	return b
}

func (b *CredentialBuilder) Expired() *CredentialBuilder {
	b.cred.ExpiresAt = time.Now().Add(-time.Minute)
	return b
}

func (b *CredentialBuilder) Build() session.Credential {
	return b.cred
}
