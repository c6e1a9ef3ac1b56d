package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/walletfolio/backend/src/services"
	"github.com/username/walletfolio/backend/src/utils"
)

type TransferHandler struct {
	transferService services.TransferService
}

func NewTransferHandler(transferService services.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

type createTransferRequest struct {
	FromWalletID uuid.UUID       `json:"from_wallet_id"`
	ToWalletID   uuid.UUID       `json:"to_wallet_id"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
}

func (h *TransferHandler) HandleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	transaction, err := h.transferService.CreateTransfer(r.Context(), userID, services.CreateTransferInput{
		FromWalletID: req.FromWalletID,
		ToWalletID:   req.ToWalletID,
		Amount:       req.Amount,
		Date:         req.Date,
		Description:  req.Description,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, transaction)
}

func (h *TransferHandler) HandleGetTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	transactionID, err := uuid.Parse(r.PathValue("transactionId"))
	if err != nil {
		utils.SendJSONError(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	transfer, err := h.transferService.GetTransferByTransaction(r.Context(), userID, transactionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, transfer)
}

func (h *TransferHandler) HandleDeleteTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	transactionID, err := uuid.Parse(r.PathValue("transactionId"))
	if err != nil {
		utils.SendJSONError(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	if err := h.transferService.DeleteTransfer(r.Context(), userID, transactionID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
