package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",
	CodeInvalidResponse:      "Response body could not be decoded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeUnknownChain:   "Unsupported chain",
	CodeInvalidAddress: "Invalid address",

	// Wallet bridge errors are shown to the user verbatim.
	CodeWalletNotAvailable:     "MetaMask not installed",
	CodeWalletRequestRejected:  "Connection failed",
	CodeWalletConnectionFailed: "Connection failed",
	CodeWalletRPCError:         "Wallet request failed",

	CodeIndexerRequestFailed: "Indexing API request failed",
	CodeIndexerUnauthorized:  "Indexing API rejected the API key",
	CodeIndexerRateLimited:   "Indexing API rate limit exceeded",
	CodeIndexerBadResponse:   "Malformed indexing API response",
	CodeHistoryFetchFailed:   "Failed to load transactions.",

	CodePreferencesLoadFailed: "Failed to load preferences",
	CodePreferencesSaveFailed: "Failed to save preferences",

	CodeCircuitOpen: "Circuit breaker is open",
}
