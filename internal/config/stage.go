package config

import "github.com/palisade-labs/pkp-engine/internal/constants"

// Stage constants define the possible deployment/runtime environments.
const (
	StageProd  = constants.ProdEnvironment
	StageTest  = "test"
	StageDev   = "dev"
	StageLocal = "local"
)

// IsValidStage checks if the provided stage string is one of the defined valid stages.
func IsValidStage(stage string) bool {
	switch stage {
	case StageProd, StageTest, StageDev, StageLocal:
		return true
	default:
		return false
	}
}
