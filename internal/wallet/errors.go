package wallet

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/quantumauth-io/simpledex-client/internal/constants"
)

var (
	ErrProviderUnavailable = errors.New("wallet provider not found: install MetaMask or another browser wallet to continue")
	ErrUserRejected        = errors.New("request rejected by user")
	ErrNetworkUnresolved   = errors.New("network not supported")
	ErrNoAccounts          = errors.New("wallet returned no accounts")
	ErrNotConnected        = errors.New("wallet not connected")
	ErrSessionChanged      = errors.New("wallet session changed")
	ErrInvalidChainID      = errors.New("invalid chain id")
)

// ProviderError is a coded error as returned by EIP-1193 providers and JSON-RPC nodes.
// Code 4001 means the user declined; it matches ErrUserRejected under errors.Is.
type ProviderError struct {
	Code    int
	Message string
	// Data is the JSON-RPC error data, typically the ABI-encoded revert payload.
	Data any
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

func (e *ProviderError) ErrorCode() int { return e.Code }

func (e *ProviderError) ErrorData() any { return e.Data }

func (e *ProviderError) Is(target error) bool {
	return target == ErrUserRejected && e.Code == constants.CodeUserRejected
}

// RejectedByUser builds the error a provider returns for a declined prompt.
func RejectedByUser(msg string) error {
	if msg == "" {
		msg = "User rejected the request."
	}
	return &ProviderError{Code: constants.CodeUserRejected, Message: msg}
}

// codedError matches go-ethereum rpc.Error and ProviderError alike.
type codedError interface {
	error
	ErrorCode() int
}

// ErrorCode extracts a JSON-RPC / EIP-1193 error code from anywhere in err's chain.
func ErrorCode(err error) (int, bool) {
	var ce codedError
	if errors.As(err, &ce) {
		return ce.ErrorCode(), true
	}
	return 0, false
}

// IsUserRejected reports whether err is (or wraps) a user-declined request,
// including coded errors from a JSON-RPC transport that are not ProviderError.
func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserRejected) {
		return true
	}
	code, ok := ErrorCode(err)
	return ok && code == constants.CodeUserRejected
}

// userMessage turns a connect failure into the text stored in WalletState.Error.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrProviderUnavailable):
		return ErrProviderUnavailable.Error()
	case IsUserRejected(err):
		return "connection request rejected in wallet"
	case errors.Is(err, ErrNoAccounts):
		return ErrNoAccounts.Error()
	default:
		return "failed to connect wallet: " + err.Error()
	}
}
