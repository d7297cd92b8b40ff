package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/marcogenualdo/sanctum-client/internal/api"
)

type WalletHandler struct {
	records *Records
	logger  *slog.Logger
}

func NewWalletHandler(records *Records, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{records: records, logger: logger}
}

func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dataEnvelope{Data: h.records.Transactions()})
}

func (h *WalletHandler) Record(w http.ResponseWriter, r *http.Request) {
	var in api.TransactionInput
	if err := decodeBody(w, r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}

	errs := make(map[string][]string)
	if in.Kind != api.KindSale && in.Kind != api.KindExpense {
		errs["kind"] = append(errs["kind"], "The selected kind is invalid.")
	}
	if in.Amount <= 0 {
		errs["amount"] = append(errs["amount"], "The amount field must be greater than 0.")
	}
	if in.ProductID != nil && in.Quantity < 1 {
		errs["quantity"] = append(errs["quantity"], "The quantity field must be at least 1.")
	}
	if len(errs) > 0 {
		writeValidation(w, errs, "kind", "amount", "quantity")
		return
	}

	tx, err := h.records.RecordTransaction(in)
	switch {
	case errors.Is(err, ErrUnknownProduct):
		writeValidation(w, map[string][]string{"product_id": {"The selected product id is invalid."}}, "product_id")
		return
	case errors.Is(err, ErrInsufficientStock):
		writeValidation(w, map[string][]string{"quantity": {"Not enough stock for this sale."}}, "quantity")
		return
	case err != nil:
		h.logger.Error("failed to record transaction", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	h.logger.Info("transaction recorded", "transaction_id", tx.ID, "kind", tx.Kind, "amount", tx.Amount)
	writeJSON(w, http.StatusCreated, dataEnvelope{Data: tx})
}
