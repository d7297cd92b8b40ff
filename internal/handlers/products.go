package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/marcogenualdo/sanctum-client/internal/api"
)

type ProductsHandler struct {
	records *Records
	logger  *slog.Logger
}

func NewProductsHandler(records *Records, logger *slog.Logger) *ProductsHandler {
	return &ProductsHandler{records: records, logger: logger}
}

func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dataEnvelope{Data: h.records.Products()})
}

func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readInput(w, r)
	if !ok {
		return
	}

	p := h.records.CreateProduct(in)
	h.logger.Info("product created", "product_id", p.ID, "sku", p.SKU)
	writeJSON(w, http.StatusCreated, dataEnvelope{Data: p})
}

func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := h.readInput(w, r)
	if !ok {
		return
	}

	p, found := h.records.UpdateProduct(id, in)
	if !found {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Data: p})
}

func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if !h.records.DeleteProduct(id) {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	h.logger.Info("product deleted", "product_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductsHandler) readInput(w http.ResponseWriter, r *http.Request) (api.ProductInput, bool) {
	var in api.ProductInput
	if err := decodeBody(w, r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed JSON body.")
		return in, false
	}
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)

	errs := make(map[string][]string)
	if in.Name == "" {
		errs["name"] = append(errs["name"], "The name field is required.")
	}
	if in.Price < 0 {
		errs["price"] = append(errs["price"], "The price field must be at least 0.")
	}
	if in.Stock < 0 {
		errs["stock"] = append(errs["stock"], "The stock field must be at least 0.")
	}
	if len(errs) > 0 {
		writeValidation(w, errs, "name", "price", "stock")
		return in, false
	}
	return in, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return 0, false
	}
	return id, true
}
