package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bitfsorg/libclaim-go/accounting"
	"github.com/bitfsorg/libclaim-go/amount"
	"github.com/bitfsorg/libclaim-go/contract"
	"github.com/bitfsorg/libclaim-go/ledger"
	"github.com/bitfsorg/libclaim-go/registry"
	"github.com/bitfsorg/libclaim-go/settlement"
	"github.com/bitfsorg/libclaim-go/token"
	"github.com/bitfsorg/libclaim-go/vesting"
)

var statusMap = []struct {
	err    error
	status int
}{
	{contract.ErrUnauthorized, http.StatusForbidden},

	{registry.ErrAirdropNotFound, http.StatusNotFound},
	{ledger.ErrNoClaims, http.StatusNotFound},
	{ledger.ErrNoClaimForAirdrop, http.StatusNotFound},
	{contract.ErrUnknownSettlement, http.StatusNotFound},
	{settlement.ErrUnknownHandle, http.StatusNotFound},

	{ledger.ErrDuplicateClaim, http.StatusConflict},
	{ledger.ErrNothingAvailable, http.StatusConflict},
	{registry.ErrWrongStatus, http.StatusConflict},
	{registry.ErrNoOpStatusChange, http.StatusConflict},
	{registry.ErrRegistryFull, http.StatusConflict},
	{contract.ErrSettlementInFlight, http.StatusConflict},

	{accounting.ErrNotFunded, http.StatusPreconditionFailed},

	{contract.ErrAmountMismatch, http.StatusBadRequest},
	{contract.ErrInvalidAccount, http.StatusBadRequest},
	{contract.ErrInvalidToken, http.StatusBadRequest},
	{amount.ErrInvalidAmount, http.StatusBadRequest},
	{amount.ErrTooManyDecimals, http.StatusBadRequest},
	{amount.ErrOverflow, http.StatusBadRequest},
	{ledger.ErrEmptyAccount, http.StatusBadRequest},
	{accounting.ErrEmptyToken, http.StatusBadRequest},
	{registry.ErrInvalidStatus, http.StatusBadRequest},
	{vesting.ErrInvalidSchedule, http.StatusBadRequest},
	{settlement.ErrInvalidOutcome, http.StatusBadRequest},

	{token.ErrConnectionFailed, http.StatusBadGateway},
	{token.ErrAuthFailed, http.StatusBadGateway},
	{token.ErrInvalidResponse, http.StatusBadGateway},
	{token.ErrRPC, http.StatusBadGateway},

	{contract.ErrClosed, http.StatusServiceUnavailable},
}

// statusFor maps an error to an HTTP status. Unlisted errors, including
// invariant violations, are 500.
func statusFor(err error) int {
	for _, m := range statusMap {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
