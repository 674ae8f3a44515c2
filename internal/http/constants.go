package http

import "time"

// Common JSON keys
const (
	JSONKeyOK                = "ok"
	JSONKeyError             = "error"
	JSONKeyCode              = "code"
	JSONKeyNetworks          = "networks"
	JSONKeySupportedChainIDs = "supportedChainIds"
	JSONKeyTokens            = "tokens"
)

// Error texts
const (
	HTTPErrorInvalidJSONText  = "invalid JSON"
	HTTPErrorForbiddenText    = "forbidden"
	HTTPErrorForbiddenHost    = "forbidden host"
	HTTPErrorNetworkNotFound  = "network not found"
	HTTPErrorUnknownChainText = "connected chain is not a supported network"
	HTTPErrorMissingChainID   = "missing chainId"
)

// Machine readable error codes returned next to the message.
const (
	ErrorCodeInvalidInput        = "invalid_input"
	ErrorCodeNotConnected        = "not_connected"
	ErrorCodeUserRejected        = "user_rejected"
	ErrorCodeProviderUnavailable = "provider_unavailable"
	ErrorCodeSessionChanged      = "session_changed"
	ErrorCodeContractCallFailed  = "contract_call_failed"
	ErrorCodePending             = "confirmation_pending"
	ErrorCodeNotFound            = "not_found"
	ErrorCodeInternal            = "internal"
)

const (
	// BalanceHumanMaxDecimalsDefault caps the fractional digits of formatted balances.
	BalanceHumanMaxDecimalsDefault = 6

	ShutdownTimeout   = 5 * time.Second
	ReadHeaderTimeout = 10 * time.Second
	CORSMaxAge        = 10 * time.Minute
)
