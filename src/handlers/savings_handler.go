package handlers

import (
	"net/http"

	"github.com/username/walletfolio/backend/src/config"
	"github.com/username/walletfolio/backend/src/services"
	"github.com/username/walletfolio/backend/src/utils"
)

type SavingsHandler struct {
	savingsService services.SavingsService
}

func NewSavingsHandler(savingsService services.SavingsService) *SavingsHandler {
	return &SavingsHandler{savingsService: savingsService}
}

func (h *SavingsHandler) HandleGetSavingsSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = config.Cfg.DefaultCurrency
	}

	summary, err := h.savingsService.GetSavingsSummary(r.Context(), userID, currency)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, summary)
}
