package config

import (
	"context"
	"fmt"
	"os"
	"time"

	awsclient "github.com/palisade-labs/pkp-engine/internal/client/aws"
)

// Config holds the runtime configuration for the engine.
type Config struct {
	Stage    string
	Port     string
	Registry RegistryConfig

	// SignerKey is the hex-encoded private key backing the local signing
	// oracle. In deployed stages it comes from Secrets Manager; locally it
	// falls back to the SIGNER_PRIVATE_KEY environment variable.
	SignerKey string

	// RoutingAPIKey authenticates against the swap route aggregator.
	RoutingAPIKey string

	// RoutingAPIURL overrides the aggregator base URL (tests, staging).
	RoutingAPIURL string

	// WrapMasterSecret derives the unwrap keys for the message-signing
	// tool's wrapped key store.
	WrapMasterSecret string

	// AttestationTimeout bounds a single attestation poll from the server
	// handler. The poller itself retries indefinitely; expiry is reported
	// as "still pending", not failure.
	AttestationTimeout time.Duration
}

// Load reads configuration from the environment, pulling secrets through
// Secrets Manager when ARNs are configured.
func Load(ctx context.Context) (*Config, error) {
	stage := os.Getenv("STAGE")
	if stage == "" {
		stage = StageLocal
	}
	if !IsValidStage(stage) {
		return nil, fmt.Errorf("invalid STAGE %q", stage)
	}

	registry, err := RegistryConfigForStage(stage)
	if err != nil {
		return nil, err
	}
	if rpcURL := os.Getenv("REGISTRY_RPC_URL"); rpcURL != "" {
		registry.RPCURL = rpcURL
	}
	if addr := os.Getenv("REGISTRY_CONTRACT_ADDRESS"); addr != "" {
		registry.ContractAddress = addr
	}

	cfg := &Config{
		Stage:              stage,
		Port:               os.Getenv("PORT"),
		Registry:           registry,
		RoutingAPIURL:      os.Getenv("ROUTING_API_URL"),
		AttestationTimeout: 10 * time.Minute,
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if v := os.Getenv("ATTESTATION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ATTESTATION_TIMEOUT %q: %w", v, err)
		}
		cfg.AttestationTimeout = d
	}

	secrets, err := awsclient.NewSecretsManagerClient(ctx)
	if err != nil {
		// Local development without AWS credentials still needs to boot.
		if stage != StageLocal {
			return nil, fmt.Errorf("failed to initialize secrets manager: %w", err)
		}
		cfg.SignerKey = os.Getenv("SIGNER_PRIVATE_KEY")
		cfg.RoutingAPIKey = os.Getenv("ROUTING_API_KEY")
		cfg.WrapMasterSecret = os.Getenv("WRAP_MASTER_SECRET")
		return cfg, nil
	}

	cfg.SignerKey, err = secrets.GetSecretString(ctx, "SIGNER_KEY_SECRET_ARN", "SIGNER_PRIVATE_KEY")
	if err != nil {
		return nil, fmt.Errorf("failed to load signer key: %w", err)
	}

	// Routing key is optional; the swap tool rejects requests without it.
	cfg.RoutingAPIKey, _ = secrets.GetSecretString(ctx, "ROUTING_API_KEY_SECRET_ARN", "ROUTING_API_KEY")

	cfg.WrapMasterSecret, err = secrets.GetSecretString(ctx, "WRAP_SECRET_ARN", "WRAP_MASTER_SECRET")
	if err != nil {
		return nil, fmt.Errorf("failed to load wrap master secret: %w", err)
	}

	return cfg, nil
}
