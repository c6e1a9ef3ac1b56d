package handlers

import (
	"errors"
	"net/http"

	"github.com/username/walletfolio/backend/src/logger"
	"github.com/username/walletfolio/backend/src/models"
	"github.com/username/walletfolio/backend/src/utils"
)

// respondServiceError maps a service error kind to an HTTP response. The
// client message stays generic; the underlying error is preserved in logs.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrWalletNotFound):
		utils.SendJSONError(w, "We couldn't find that wallet. Please try again.", http.StatusNotFound)
	case errors.Is(err, models.ErrTransactionNotFound):
		utils.SendJSONError(w, "We couldn't find that transaction. Please try again.", http.StatusNotFound)
	case errors.Is(err, models.ErrTransferNotFound):
		utils.SendJSONError(w, "We couldn't find that transfer. Please try again.", http.StatusNotFound)
	case errors.Is(err, models.ErrInvalidTransfer),
		errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrWalletNotEmpty),
		errors.Is(err, models.ErrInsufficientFunds):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrRateLimitExceeded):
		utils.SendJSONError(w, "We couldn't complete that transfer right now. Please try again later.", http.StatusServiceUnavailable)
	case errors.Is(err, models.ErrExchangeRateUnavailable):
		utils.SendJSONError(w, "We couldn't determine the exchange rate. Please try again later.", http.StatusServiceUnavailable)
	default:
		logger.L.Error("Unhandled service error", "method", r.Method, "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
	}
}
