package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"globaltrust/internal/credential"
	"globaltrust/internal/platform/config"
)

// devDelegationTTL bounds delegations signed by the development provider.
const devDelegationTTL = 8 * time.Hour

// devProviderPath is where the development identity provider is mounted.
const devProviderPath = "/dev/identity"

// credentials is the credential subsystem of one process.
type credentials struct {
	manager     *credential.Manager
	providerURL string
	devProvider http.Handler
}

func buildCredentials(cfg config.Server, logger *slog.Logger) (*credentials, error) {
	verifier, err := buildVerifier(cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildKeystore(cfg)
	if err != nil {
		return nil, err
	}

	flow := credential.NewLoopbackFlow(credential.LogOpener(logger), credential.WithFlowLogger(logger))
	c := &credentials{
		manager:     credential.NewManager(verifier, store, flow, credential.WithLogger(logger)),
		providerURL: cfg.ProviderURL(),
	}

	if cfg.DevProvider {
		minter := credential.NewHMACMinter([]byte(cfg.DelegationSecret), string(cfg.Network()), devDelegationTTL)
		c.devProvider = credential.NewDevProvider(minter).Routes()
		c.providerURL = localBaseURL(cfg.Addr) + devProviderPath
		logger.Warn("development identity provider enabled; delegations are self-signed",
			"provider_url", c.providerURL,
		)
	}
	return c, nil
}

// buildVerifier prefers the provider's public key; the shared secret is only
// used on the local network.
func buildVerifier(cfg config.Server) (*credential.Verifier, error) {
	if cfg.DelegationPublicKey != "" && !cfg.DevProvider {
		pub, err := credential.ParseEd25519PublicKey(cfg.DelegationPublicKey)
		if err != nil {
			return nil, fmt.Errorf("GT_DELEGATION_PUBLIC_KEY: %w", err)
		}
		return credential.NewEd25519Verifier(pub)
	}
	return credential.NewHMACVerifier([]byte(cfg.DelegationSecret))
}

func buildKeystore(cfg config.Server) (credential.Keystore, error) {
	if cfg.KeystorePath == "" {
		return credential.NewMemoryKeystore(), nil
	}
	sealer, err := credential.NewSealer([]byte(cfg.KeystoreSecret))
	if err != nil {
		return nil, fmt.Errorf("GT_KEYSTORE_SECRET: %w", err)
	}
	return credential.NewFileKeystore(cfg.KeystorePath, sealer), nil
}

// localBaseURL turns a listen address such as ":8080" into a browser URL.
func localBaseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
