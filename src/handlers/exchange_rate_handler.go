package handlers

import (
	"net/http"

	"github.com/username/walletfolio/backend/src/services"
	"github.com/username/walletfolio/backend/src/utils"
)

type ExchangeRateHandler struct {
	rateService services.ExchangeRateService
}

func NewExchangeRateHandler(rateService services.ExchangeRateService) *ExchangeRateHandler {
	return &ExchangeRateHandler{rateService: rateService}
}

func (h *ExchangeRateHandler) HandleGetExchangeRate(w http.ResponseWriter, r *http.Request) {
	if _, ok := GetUserIDFromContext(r.Context()); !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		utils.SendJSONError(w, "from and to query parameters are required", http.StatusBadRequest)
		return
	}

	result, err := h.rateService.GetCurrentExchangeRate(r.Context(), from, to)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"from":       from,
		"to":         to,
		"rate":       result.Rate,
		"fetched_at": result.FetchedAt,
		"stale":      result.Stale,
	})
}
