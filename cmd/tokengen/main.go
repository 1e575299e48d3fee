// Package main provides a CLI tool for minting delegations for local development.
// HMAC delegations use the development secret and are rejected on the ic network.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"globaltrust/internal/credential"
	"globaltrust/internal/platform/config"
)

const (
	defaultDelegationTTL = 8 * time.Hour
	defaultPrincipal     = "2vxsx-fae"
)

type tokenOutput struct {
	Token     string            `json:"token,omitempty"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in,omitempty"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	delegationCmd := flag.NewFlagSet("delegation", flag.ExitOnError)
	keypairCmd := flag.NewFlagSet("keypair", flag.ExitOnError)

	principal := delegationCmd.String("principal", defaultPrincipal, "Principal the delegation names")
	secret := delegationCmd.String("secret", config.DevDelegationSecret, "HMAC secret (GT_DELEGATION_SECRET)")
	privateKey := delegationCmd.String("private-key", "", "Base64 ed25519 private key; signs EdDSA instead of HS256")
	network := delegationCmd.String("network", string(config.NetworkLocal), "Network claim")
	ttl := delegationCmd.Duration("ttl", defaultDelegationTTL, "Delegation time-to-live")
	delegationJSON := delegationCmd.Bool("json", false, "Output as JSON")

	keypairJSON := keypairCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "delegation":
		_ = delegationCmd.Parse(os.Args[2:])
		mintDelegation(*principal, *secret, *privateKey, *network, *ttl, *delegationJSON)
	case "keypair":
		_ = keypairCmd.Parse(os.Args[2:])
		generateKeypair(*keypairJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Mint delegations for the GlobalTrust BFF

WARNING: HMAC delegations use the development secret and only work on the
         local network. Use them for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  delegation  Mint a delegation for a principal
  keypair     Generate an ed25519 key pair for EdDSA delegations

Examples:
  # Delegation for the default test principal
  tokengen delegation

  # Delegation for a specific principal with a short TTL
  tokengen delegation -principal rrkah-fqaaa-aaaaa-aaaaq-cai -ttl 15m

  # EdDSA delegation verified with GT_DELEGATION_PUBLIC_KEY
  tokengen keypair
  tokengen delegation -private-key <base64>

  # Output as JSON
  tokengen delegation -json

Use "tokengen <command> -h" for more information about a command.`)
}

func mintDelegation(principal, secret, privateKey, network string, ttl time.Duration, jsonOutput bool) {
	minter := credential.NewHMACMinter([]byte(secret), network, ttl)
	alg := "HS256"
	if privateKey != "" {
		raw, err := base64.StdEncoding.DecodeString(privateKey)
		if err != nil || len(raw) != ed25519.PrivateKeySize {
			fmt.Fprintln(os.Stderr, "Invalid -private-key: expected base64 of a 64-byte ed25519 private key")
			os.Exit(1)
		}
		minter = credential.NewEd25519Minter(ed25519.PrivateKey(raw), network, ttl)
		alg = "EdDSA"
	}

	now := time.Now()
	token, err := minter.Mint(principal, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error minting delegation: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "delegation",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"sub": principal,
				"net": network,
				"exp": now.Add(ttl).UTC().Format(time.RFC3339),
			},
			Usage: map[string]string{
				"callback":  "http://127.0.0.1:<port>/callback?delegation=<token>&state=<state>",
				"algorithm": alg,
			},
		})
		return
	}

	fmt.Println("Delegation (JWT)")
	fmt.Println("================")
	fmt.Printf("Algorithm:  %s\n", alg)
	fmt.Printf("Principal:  %s\n", principal)
	fmt.Printf("Network:    %s\n", network)
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  Complete a pending sign-in by opening the loopback callback with")
	fmt.Println("  ?delegation=<token>&state=<state from GET /session/sign-in>")
}

func generateKeypair(jsonOutput bool) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating key pair: %v\n", err)
		os.Exit(1)
	}
	pubB64 := base64.StdEncoding.EncodeToString(pub)
	privB64 := base64.StdEncoding.EncodeToString(priv)

	if jsonOutput {
		printJSON(tokenOutput{
			Type: "ed25519_keypair",
			Usage: map[string]string{
				"GT_DELEGATION_PUBLIC_KEY": pubB64,
				"private_key":              privB64,
			},
		})
		return
	}

	fmt.Println("Ed25519 Key Pair")
	fmt.Println("================")
	fmt.Printf("GT_DELEGATION_PUBLIC_KEY=%s\n", pubB64)
	fmt.Printf("Private key (tokengen delegation -private-key): %s\n", privB64)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
