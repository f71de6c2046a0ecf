package constants

// Common string constants used throughout the codebase
const (
	// Log levels
	ErrorLevel = "error"

	// Environments
	ProdEnvironment = "prod"

	// Execution result status values
	SuccessStatus = "success"
	ErrorStatus   = "error"

	// Tool names
	ToolBridgedTransfer = "bridged-transfer"
	ToolVaultAdmin      = "vault-admin"
	ToolSwap            = "swap"
	ToolSignMessage     = "sign-message"
)
