package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Network selects the deployment mode: the local replica or the public network.
type Network string

const (
	NetworkLocal Network = "local"
	NetworkIC    Network = "ic"
)

// DevDelegationSecret signs delegations of the local development provider
// when GT_DELEGATION_SECRET is not set. It is never accepted on the ic network.
const DevDelegationSecret = "dev-delegation-secret-change-me"

// Canisters holds the endpoint identifier of each backend service.
type Canisters struct {
	Identity     string `env:"IDENTITY_VERIFIER_CANISTER_ID"`
	Assets       string `env:"PROPERTY_TOKEN_CANISTER_ID"`
	Marketplace  string `env:"PROPERTY_MARKETPLACE_CANISTER_ID"`
	Lending      string `env:"LENDING_BORROWING_CANISTER_ID"`
	Verification string `env:"PROPERTY_VERIFIER_CANISTER_ID"`
}

// Server captures process configuration. It is read once at start.
type Server struct {
	Addr             string        `env:"GT_ADDR"               envDefault:":8080"`
	DFXNetwork       string        `env:"DFX_NETWORK"           envDefault:"local"`
	LocalProviderURL string        `env:"GT_LOCAL_PROVIDER_URL" envDefault:"http://ucwa4-rx777-77774-qaada-cai.localhost:4943"`
	ICProviderURL    string        `env:"GT_IC_PROVIDER_URL"    envDefault:"https://identity.ic0.app"`
	LocalServiceHost string        `env:"GT_LOCAL_SERVICE_HOST" envDefault:"http://127.0.0.1:4943"`
	ICServiceHost    string        `env:"GT_IC_SERVICE_HOST"    envDefault:"https://icp-api.io"`
	CallTimeout      time.Duration `env:"GT_CALL_TIMEOUT"       envDefault:"15s"`
	RequestTimeout   time.Duration `env:"GT_REQUEST_TIMEOUT"    envDefault:"30s"`
	LogLevel         string        `env:"GT_LOG_LEVEL"          envDefault:"info"`

	DelegationSecret    string `env:"GT_DELEGATION_SECRET"`
	DelegationPublicKey string `env:"GT_DELEGATION_PUBLIC_KEY"`
	KeystorePath        string `env:"GT_KEYSTORE_PATH"`
	KeystoreSecret      string `env:"GT_KEYSTORE_SECRET"`
	DevProvider         bool   `env:"GT_DEV_PROVIDER" envDefault:"false"`

	Canisters Canisters
}

// Load reads optional .env files, then the environment. Variables already
// set in the environment win over file values; missing files are ignored.
func Load(files ...string) (Server, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Server{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Network() == NetworkLocal && cfg.DelegationSecret == "" {
		cfg.DelegationSecret = DevDelegationSecret
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Network maps DFX_NETWORK onto a deployment mode. Anything other than "ic"
// is the local replica.
func (c Server) Network() Network {
	if strings.EqualFold(strings.TrimSpace(c.DFXNetwork), string(NetworkIC)) {
		return NetworkIC
	}
	return NetworkLocal
}

// ProviderURL is the identity provider used for interactive sign-in.
func (c Server) ProviderURL() string {
	if c.Network() == NetworkIC {
		return c.ICProviderURL
	}
	return c.LocalProviderURL
}

// ServiceHost is the base URL backend service calls are sent to.
func (c Server) ServiceHost() string {
	if c.Network() == NetworkIC {
		return c.ICServiceHost
	}
	return c.LocalServiceHost
}

func (c Server) Validate() error {
	var errs []error
	if c.CallTimeout <= 0 {
		errs = append(errs, errors.New("GT_CALL_TIMEOUT must be positive"))
	}
	if c.Network() == NetworkIC {
		if c.DelegationPublicKey == "" {
			errs = append(errs, errors.New("GT_DELEGATION_PUBLIC_KEY is required on the ic network"))
		}
		if c.DevProvider {
			errs = append(errs, errors.New("GT_DEV_PROVIDER is not allowed on the ic network"))
		}
	}
	if c.KeystorePath != "" && c.KeystoreSecret == "" {
		errs = append(errs, errors.New("GT_KEYSTORE_SECRET is required with GT_KEYSTORE_PATH"))
	}
	return errors.Join(errs...)
}
