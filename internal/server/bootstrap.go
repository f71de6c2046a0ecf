package server

import (
	"context"
	"fmt"

	"github.com/palisade-labs/pkp-engine/internal/chain"
	"github.com/palisade-labs/pkp-engine/internal/client/routing"
	"github.com/palisade-labs/pkp-engine/internal/config"
	"github.com/palisade-labs/pkp-engine/internal/engine"
	"github.com/palisade-labs/pkp-engine/internal/registry"
	"github.com/palisade-labs/pkp-engine/internal/signer"
	"github.com/palisade-labs/pkp-engine/internal/tools/cctp"
	"github.com/palisade-labs/pkp-engine/internal/tools/signmsg"
	"github.com/palisade-labs/pkp-engine/internal/tools/swap"
	"github.com/palisade-labs/pkp-engine/internal/tools/vaultadmin"
)

// BuildOrchestrator wires the production dependency graph: registry
// client over the stage's RPC endpoint, local signing oracle, route
// aggregator, wrapped key store, and all four tools.
func BuildOrchestrator(ctx context.Context, cfg *config.Config) (*engine.Orchestrator, error) {
	registryRPC, err := chain.Dial(ctx, cfg.Registry.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to registry chain: %w", err)
	}
	reg, err := registry.NewClient(registryRPC, cfg.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry client: %w", err)
	}

	oracle, err := signer.NewLocalSigner(cfg.SignerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build signing oracle: %w", err)
	}

	routingURL := cfg.RoutingAPIURL
	if routingURL == "" {
		routingURL = routing.DefaultBaseURL
	}
	router := routing.NewClient(routingURL, cfg.RoutingAPIKey)

	keyStore, err := signer.NewAESKeyStore([]byte(cfg.WrapMasterSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to build wrapped key store: %w", err)
	}

	orchestrator := engine.NewOrchestrator(reg)
	orchestrator.Register(cctp.New(reg, oracle))
	orchestrator.Register(vaultadmin.New(reg, oracle))
	orchestrator.Register(swap.New(reg, oracle, router))
	orchestrator.Register(signmsg.New(reg, keyStore))
	return orchestrator, nil
}
