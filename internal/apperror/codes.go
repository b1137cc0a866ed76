package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"
	CodeInvalidResponse      Code = "INVALID_RESPONSE"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Wallet dashboard error codes
const (
	// Chain registry
	CodeUnknownChain   Code = "UNKNOWN_CHAIN"
	CodeInvalidAddress Code = "INVALID_ADDRESS"

	// Wallet bridge
	CodeWalletNotAvailable     Code = "WALLET_NOT_AVAILABLE"
	CodeWalletRequestRejected  Code = "WALLET_REQUEST_REJECTED"
	CodeWalletConnectionFailed Code = "WALLET_CONNECTION_FAILED"
	CodeWalletRPCError         Code = "WALLET_RPC_ERROR"

	// Indexing API
	CodeIndexerRequestFailed Code = "INDEXER_REQUEST_FAILED"
	CodeIndexerUnauthorized  Code = "INDEXER_UNAUTHORIZED"
	CodeIndexerRateLimited   Code = "INDEXER_RATE_LIMITED"
	CodeIndexerBadResponse   Code = "INDEXER_BAD_RESPONSE"
	CodeHistoryFetchFailed   Code = "HISTORY_FETCH_FAILED"

	// Preferences
	CodePreferencesLoadFailed Code = "PREFERENCES_LOAD_FAILED"
	CodePreferencesSaveFailed Code = "PREFERENCES_SAVE_FAILED"

	// Circuit breaker
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
