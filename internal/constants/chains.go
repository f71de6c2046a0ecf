package constants

// Supported chain IDs for the bridged USDC transfer flow.
const (
	// Testnets
	ChainEthSepolia   uint64 = 11155111
	ChainAvaxFuji     uint64 = 43113
	ChainBaseSepolia  uint64 = 84532
	ChainLineaSepolia uint64 = 59141

	// Mainnets
	ChainEth   uint64 = 1
	ChainAvax  uint64 = 43114
	ChainBase  uint64 = 8453
	ChainLinea uint64 = 59144
)

var testnets = map[uint64]bool{
	ChainEthSepolia:   true,
	ChainAvaxFuji:     true,
	ChainBaseSepolia:  true,
	ChainLineaSepolia: true,
}

// IsTestnet reports whether the chain ID belongs to a test network.
func IsTestnet(chainID uint64) bool {
	return testnets[chainID]
}

// SameNetworkTier reports whether both chains are testnets or both are
// mainnets. Mixed pairs can never settle a bridged transfer.
func SameNetworkTier(srcChainID, dstChainID uint64) bool {
	return testnets[srcChainID] == testnets[dstChainID]
}

// USDCAddresses maps chain ID to the canonical USDC token contract.
var USDCAddresses = map[uint64]string{
	ChainEthSepolia:   "0x1c7d4b196cb0c7b01d743fbc6116a902379c7238",
	ChainAvaxFuji:     "0x5425890298aed601595a70AB815c96711a31Bc65",
	ChainBaseSepolia:  "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
	ChainLineaSepolia: "0xFEce4462D57bD51A6A552365A011b95f0E16d9B7",

	ChainEth:   "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
	ChainAvax:  "0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e",
	ChainBase:  "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
	ChainLinea: "0x176211869cA2b568f2A7D4EE941E073a821EE1ff",
}

// TokenMessengerAddresses maps chain ID to the bridge contract that burns
// USDC on the source chain.
var TokenMessengerAddresses = map[uint64]string{
	ChainEthSepolia:   "0x8fe6b999dc680ccfdd5bf7eb0974218be2542daa",
	ChainAvaxFuji:     "0x8fe6b999dc680ccfdd5bf7eb0974218be2542daa",
	ChainBaseSepolia:  "0x8fe6b999dc680ccfdd5bf7eb0974218be2542daa",
	ChainLineaSepolia: "0x8fe6b999dc680ccfdd5bf7eb0974218be2542daa",

	ChainEth:   "0x28b5a0e9C621a5BadaA536219b3a228C8168cf5d",
	ChainAvax:  "0x28b5a0e9C621a5BadaA536219b3a228C8168cf5d",
	ChainBase:  "0x28b5a0e9C621a5BadaA536219b3a228C8168cf5d",
	ChainLinea: "0x28b5a0e9C621a5BadaA536219b3a228C8168cf5d",
}

// MessageTransmitterAddresses maps chain ID to the bridge contract that
// mints USDC on the destination chain once an attestation is presented.
var MessageTransmitterAddresses = map[uint64]string{
	ChainEthSepolia:   "0xe737e5cebeeba77efe34d4aa090756590b1ce275",
	ChainAvaxFuji:     "0xe737e5cebeeba77efe34d4aa090756590b1ce275",
	ChainBaseSepolia:  "0xe737e5cebeeba77efe34d4aa090756590b1ce275",
	ChainLineaSepolia: "0xe737e5cebeeba77efe34d4aa090756590b1ce275",

	ChainEth:   "0x81D40F21F12A8F0E3252Bccb954D722d4c464B64",
	ChainAvax:  "0x81D40F21F12A8F0E3252Bccb954D722d4c464B64",
	ChainBase:  "0x81D40F21F12A8F0E3252Bccb954D722d4c464B64",
	ChainLinea: "0x81D40F21F12A8F0E3252Bccb954D722d4c464B64",
}

// DestinationDomains maps chain ID to the bridge protocol's domain number.
var DestinationDomains = map[uint64]uint32{
	ChainEthSepolia:   0,
	ChainAvaxFuji:     1,
	ChainBaseSepolia:  6,
	ChainLineaSepolia: 11,

	ChainEth:   0,
	ChainAvax:  1,
	ChainBase:  6,
	ChainLinea: 11,
}

// AttestationAPIURLs maps chain ID to the attestation service base URL.
// Testnets use the sandbox deployment.
var AttestationAPIURLs = map[uint64]string{
	ChainEthSepolia:   "https://iris-api-sandbox.circle.com",
	ChainAvaxFuji:     "https://iris-api-sandbox.circle.com",
	ChainBaseSepolia:  "https://iris-api-sandbox.circle.com",
	ChainLineaSepolia: "https://iris-api-sandbox.circle.com",

	ChainEth:   "https://iris-api.circle.com",
	ChainAvax:  "https://iris-api.circle.com",
	ChainBase:  "https://iris-api.circle.com",
	ChainLinea: "https://iris-api.circle.com",
}

// Burn finality threshold passed to depositForBurn.
const DefaultFinalityThreshold uint32 = 1000
