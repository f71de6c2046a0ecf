package cctp

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/palisade-labs/pkp-engine/internal/constants"
)

const tokenMessengerABIJSON = `[
	{
		"name": "depositForBurn",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "amount", "type": "uint256"},
			{"name": "destinationDomain", "type": "uint32"},
			{"name": "mintRecipient", "type": "bytes32"},
			{"name": "burnToken", "type": "address"},
			{"name": "destinationCaller", "type": "bytes32"},
			{"name": "maxFee", "type": "uint256"},
			{"name": "minFinalityThreshold", "type": "uint32"}
		],
		"outputs": []
	}
]`

const messageTransmitterABIJSON = `[
	{
		"name": "receiveMessage",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "message", "type": "bytes"},
			{"name": "attestation", "type": "bytes"}
		],
		"outputs": []
	}
]`

var (
	tokenMessengerABI     abi.ABI
	messageTransmitterABI abi.ABI
)

func init() {
	var err error
	tokenMessengerABI, err = abi.JSON(strings.NewReader(tokenMessengerABIJSON))
	if err != nil {
		panic("invalid token messenger abi: " + err.Error())
	}
	messageTransmitterABI, err = abi.JSON(strings.NewReader(messageTransmitterABIJSON))
	if err != nil {
		panic("invalid message transmitter abi: " + err.Error())
	}
}

// addressToBytes32 left-pads an address into the bridge's 32-byte
// recipient representation.
func addressToBytes32(addr common.Address) [32]byte {
	var out [32]byte
	copy(out[12:], addr.Bytes())
	return out
}

// encodeDepositForBurn builds the burn calldata. The bridge charges a
// fast-transfer fee out of the burned amount, so maxFee is amount-1:
// any fee is acceptable as long as at least one atomic unit arrives.
func encodeDepositForBurn(amount *big.Int, destinationDomain uint32, recipient common.Address, burnToken common.Address) ([]byte, error) {
	maxFee := new(big.Int).Sub(amount, big.NewInt(1))
	return tokenMessengerABI.Pack("depositForBurn",
		amount,
		destinationDomain,
		addressToBytes32(recipient),
		burnToken,
		[32]byte{},
		maxFee,
		constants.DefaultFinalityThreshold,
	)
}

// encodeReceiveMessage builds the mint calldata from the attestation
// service's message and attestation payloads.
func encodeReceiveMessage(message, attestation []byte) ([]byte, error) {
	return messageTransmitterABI.Pack("receiveMessage", message, attestation)
}
