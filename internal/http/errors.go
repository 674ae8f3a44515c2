package http

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/quantumauth-io/simpledex-client/internal/assets"
	"github.com/quantumauth-io/simpledex-client/internal/dex"
	"github.com/quantumauth-io/simpledex-client/internal/utils"
	"github.com/quantumauth-io/simpledex-client/internal/wallet"
)

var errNetworkNotFound = errors.New(HTTPErrorNetworkNotFound)

// classify maps an error to its HTTP status and code. Order matters: a declined signature
// is also a failed contract call, and a pending confirmation wraps a context error.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadInput),
		errors.Is(err, utils.ErrInvalidAmount),
		errors.Is(err, utils.ErrTooManyDecimals):
		return http.StatusBadRequest, ErrorCodeInvalidInput
	case errors.Is(err, dex.ErrNotInitialized),
		errors.Is(err, wallet.ErrNotConnected):
		return http.StatusPreconditionRequired, ErrorCodeNotConnected
	case errors.Is(err, wallet.ErrUserRejected):
		return http.StatusConflict, ErrorCodeUserRejected
	case errors.Is(err, dex.ErrConfirmationPending):
		return http.StatusAccepted, ErrorCodePending
	case errors.Is(err, wallet.ErrSessionChanged):
		return http.StatusConflict, ErrorCodeSessionChanged
	case errors.Is(err, wallet.ErrProviderUnavailable):
		return http.StatusServiceUnavailable, ErrorCodeProviderUnavailable
	case errors.Is(err, dex.ErrContractCallFailed):
		return http.StatusBadGateway, ErrorCodeContractCallFailed
	case errors.Is(err, assets.ErrNotFound),
		errors.Is(err, errNetworkNotFound):
		return http.StatusNotFound, ErrorCodeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorCodeInternal
	default:
		return http.StatusInternalServerError, ErrorCodeInternal
	}
}

// respondError writes err with the partial progress of a failed operation when there is one.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, code := classify(err)
	res := errorRes{Error: err.Error(), Code: code}

	var opErr *dex.OperationError
	if errors.As(err, &opErr) {
		res.FailedStep = opErr.FailedStep
		res.Completed = opErr.Completed
		if hash, ok := opErr.TxHash(); ok {
			res.TxHash = hash.Hex()
			res.TxURL = h.txURL(hash.Hex())
		}
	}

	_ = c.Error(err)
	c.JSON(status, res)
}
