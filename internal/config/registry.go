package config

import "fmt"

// RegistryConfig binds one environment of the on-chain tool policy registry:
// the RPC endpoint it lives behind and the contract address to query.
type RegistryConfig struct {
	RPCURL          string `json:"rpc_url"`
	ContractAddress string `json:"contract_address"`
}

// defaultRegistryConfigs holds one registry deployment per stage. The three
// deployments share an RPC endpoint but have distinct contract addresses.
var defaultRegistryConfigs = map[string]RegistryConfig{
	StageDev: {
		RPCURL:          "https://yellowstone-rpc.litprotocol.com",
		ContractAddress: "0x2707eabb60D262024F8738455811a338B0ECd3EC",
	},
	StageTest: {
		RPCURL:          "https://yellowstone-rpc.litprotocol.com",
		ContractAddress: "0x525bF2bEb622D7C05E979a8b3fFcDBBEF944450E",
	},
	StageProd: {
		RPCURL:          "https://yellowstone-rpc.litprotocol.com",
		ContractAddress: "0xBDEd44A02b64416C831A0D82a630488A854ab4b1",
	},
}

// RegistryConfigForStage returns the registry deployment for the given stage.
// Local development uses the dev registry.
func RegistryConfigForStage(stage string) (RegistryConfig, error) {
	if stage == StageLocal {
		stage = StageDev
	}
	cfg, ok := defaultRegistryConfigs[stage]
	if !ok {
		return RegistryConfig{}, fmt.Errorf("no registry configured for stage %q", stage)
	}
	return cfg, nil
}
