package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/walletfolio/backend/src/services"
	"github.com/username/walletfolio/backend/src/utils"
)

type WalletHandler struct {
	walletService services.WalletService
}

func NewWalletHandler(walletService services.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

type createWalletRequest struct {
	Name              string          `json:"name"`
	Currency          string          `json:"currency"`
	OpeningBalance    decimal.Decimal `json:"opening_balance"`
	IsSavingAccount   bool            `json:"is_saving_account"`
	SavingAccountGoal decimal.Decimal `json:"saving_account_goal"`
}

type updateWalletRequest struct {
	Name              *string          `json:"name"`
	Currency          *string          `json:"currency"`
	IsSavingAccount   *bool            `json:"is_saving_account"`
	SavingAccountGoal *decimal.Decimal `json:"saving_account_goal"`
}

func (h *WalletHandler) HandleCreateWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req createWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	wallet, err := h.walletService.CreateWallet(r.Context(), userID, services.CreateWalletInput{
		Name:              req.Name,
		Currency:          req.Currency,
		OpeningBalance:    req.OpeningBalance,
		IsSavingAccount:   req.IsSavingAccount,
		SavingAccountGoal: req.SavingAccountGoal,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, wallet)
}

func (h *WalletHandler) HandleListWallets(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	wallets, err := h.walletService.ListWallets(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, wallets)
}

func (h *WalletHandler) HandleGetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	walletID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.SendJSONError(w, "invalid wallet id", http.StatusBadRequest)
		return
	}

	wallet, err := h.walletService.GetWallet(r.Context(), userID, walletID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, wallet)
}

func (h *WalletHandler) HandleUpdateWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	walletID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.SendJSONError(w, "invalid wallet id", http.StatusBadRequest)
		return
	}

	var req updateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	wallet, err := h.walletService.UpdateWallet(r.Context(), userID, walletID, services.UpdateWalletInput{
		Name:              req.Name,
		Currency:          req.Currency,
		IsSavingAccount:   req.IsSavingAccount,
		SavingAccountGoal: req.SavingAccountGoal,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, wallet)
}

func (h *WalletHandler) HandleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	walletID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.SendJSONError(w, "invalid wallet id", http.StatusBadRequest)
		return
	}

	if err := h.walletService.DeleteWallet(r.Context(), userID, walletID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
