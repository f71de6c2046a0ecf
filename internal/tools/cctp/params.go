package cctp

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/palisade-labs/pkp-engine/internal/constants"
	"github.com/palisade-labs/pkp-engine/internal/engine"
	"github.com/palisade-labs/pkp-engine/internal/policy"
)

// Params is the caller input for a bridged USDC transfer. Amount is a
// human decimal string; conversion to atomic units happens against the
// token's on-chain decimals. BurnTxHash resumes a run whose burn
// already committed: approve and burn are skipped, attestation and mint
// always run.
type Params struct {
	Amount     string `json:"amount"`
	Recipient  string `json:"recipient"`
	SrcChainID uint64 `json:"srcChain"`
	DstChainID uint64 `json:"dstChain"`
	SrcRPCURL  string `json:"srcRpcUrl"`
	DstRPCURL  string `json:"dstRpcUrl"`
	BurnTxHash string `json:"burnTxHash,omitempty"`
}

// Validate checks the parameter schema before any policy or chain work.
func (p Params) Validate() []engine.ParamError {
	var errs []engine.ParamError

	if p.BurnTxHash == "" {
		if _, err := policy.ToAtomic(p.Amount, 18); err != nil {
			errs = append(errs, engine.ParamError{Param: "amount", Error: err.Error()})
		}
	}
	if !common.IsHexAddress(p.Recipient) {
		errs = append(errs, engine.ParamError{Param: "recipient", Error: "not a valid address"})
	}
	if _, ok := constants.USDCAddresses[p.SrcChainID]; !ok {
		errs = append(errs, engine.ParamError{Param: "srcChain", Error: fmt.Sprintf("unsupported chain %d", p.SrcChainID)})
	}
	if _, ok := constants.USDCAddresses[p.DstChainID]; !ok {
		errs = append(errs, engine.ParamError{Param: "dstChain", Error: fmt.Sprintf("unsupported chain %d", p.DstChainID)})
	}
	if p.SrcChainID == p.DstChainID {
		errs = append(errs, engine.ParamError{Param: "dstChain", Error: "source and destination chain must differ"})
	}
	if !constants.SameNetworkTier(p.SrcChainID, p.DstChainID) {
		errs = append(errs, engine.ParamError{Param: "dstChain", Error: "source and destination must be on the same network tier"})
	}
	if p.SrcRPCURL == "" {
		errs = append(errs, engine.ParamError{Param: "srcRpcUrl", Error: "required"})
	}
	if p.DstRPCURL == "" {
		errs = append(errs, engine.ParamError{Param: "dstRpcUrl", Error: "required"})
	}
	if p.BurnTxHash != "" {
		if len(p.BurnTxHash) != 66 || p.BurnTxHash[:2] != "0x" {
			errs = append(errs, engine.ParamError{Param: "burnTxHash", Error: "not a valid transaction hash"})
		}
	}
	return errs
}
