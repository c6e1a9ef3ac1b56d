package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/walletfolio/backend/src/models"
	"github.com/username/walletfolio/backend/src/services"
	"github.com/username/walletfolio/backend/src/utils"
)

type TransactionHandler struct {
	ledgerService services.LedgerService
}

func NewTransactionHandler(ledgerService services.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService}
}

type recordTransactionRequest struct {
	WalletID    uuid.UUID       `json:"wallet_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Type        string          `json:"type"`
	CategoryID  *string         `json:"category_id"`
	Description string          `json:"description"`
}

type updateTransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Date        *time.Time       `json:"date"`
	CategoryID  *string          `json:"category_id"`
	Description *string          `json:"description"`
}

func (h *TransactionHandler) HandleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req recordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Users record income and expenses here. Transfers have their own
	// endpoint and adjustments are system-generated at wallet creation.
	txType := models.TransactionType(req.Type)
	if txType != models.TransactionTypeIncome && txType != models.TransactionTypeExpense {
		utils.SendJSONError(w, "type must be income or expense", http.StatusBadRequest)
		return
	}
	if req.CategoryID == nil || *req.CategoryID == "" {
		utils.SendJSONError(w, "category_id is required for income and expense", http.StatusBadRequest)
		return
	}

	transaction, err := h.ledgerService.RecordTransaction(r.Context(), userID, services.RecordTransactionInput{
		WalletID:    req.WalletID,
		Amount:      req.Amount,
		Date:        req.Date,
		Type:        txType,
		CategoryID:  req.CategoryID,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, transaction)
}

func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var filter services.TransactionFilter
	if v := r.URL.Query().Get("wallet_id"); v != "" {
		walletID, err := uuid.Parse(v)
		if err != nil {
			utils.SendJSONError(w, "invalid wallet_id filter", http.StatusBadRequest)
			return
		}
		filter.WalletID = &walletID
	}
	if v := r.URL.Query().Get("type"); v != "" {
		txType := models.TransactionType(v)
		if !txType.Valid() {
			utils.SendJSONError(w, "invalid type filter", http.StatusBadRequest)
			return
		}
		filter.Type = &txType
	}
	if v := r.URL.Query().Get("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			utils.SendJSONError(w, "invalid from filter, expected RFC3339", http.StatusBadRequest)
			return
		}
		filter.From = &from
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			utils.SendJSONError(w, "invalid to filter, expected RFC3339", http.StatusBadRequest)
			return
		}
		filter.To = &to
	}

	transactions, err := h.ledgerService.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, transactions)
}

func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	transactionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.SendJSONError(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	transaction, err := h.ledgerService.GetTransaction(r.Context(), userID, transactionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, transaction)
}

func (h *TransactionHandler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	transactionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.SendJSONError(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	transaction, err := h.ledgerService.UpdateTransaction(r.Context(), userID, transactionID, services.UpdateTransactionInput{
		Amount:      req.Amount,
		Date:        req.Date,
		CategoryID:  req.CategoryID,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, transaction)
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	transactionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.SendJSONError(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	if err := h.ledgerService.DeleteTransaction(r.Context(), userID, transactionID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
