package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/marcogenualdo/sanctum-client/internal/api"
	"github.com/marcogenualdo/sanctum-client/internal/cache"
	"github.com/marcogenualdo/sanctum-client/internal/config"
	"github.com/marcogenualdo/sanctum-client/internal/middleware"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUsers(t *testing.T) *UserDirectory {
	t.Helper()
	users, err := NewUserDirectory([]config.MockUser{
		{Name: "Alice", Email: "alice@example.com", Password: "wonderland"},
		{Email: "bob@example.com", Password: "builder"},
	}, bcrypt.MinCost)
	require.NoError(t, err)
	return users
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(method, path, bytes.NewReader(data))
}

func TestUserDirectory(t *testing.T) {
	users := testUsers(t)

	alice, ok := users.Authenticate("ALICE@example.com ", "wonderland")
	require.True(t, ok)
	assert.Equal(t, int64(1), alice.ID)
	assert.Equal(t, "Alice", alice.Name)

	_, ok = users.Authenticate("alice@example.com", "wrong")
	assert.False(t, ok)
	_, ok = users.Authenticate("carol@example.com", "wonderland")
	assert.False(t, ok)

	bob, ok := users.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, "bob", bob.Name)
	assert.Equal(t, 2, users.Len())
}

func TestRecordsProducts(t *testing.T) {
	rs := NewRecords()

	mug := rs.CreateProduct(api.ProductInput{Name: "Mug", SKU: "MUG-1", Price: 1200, Stock: 5})
	tee := rs.CreateProduct(api.ProductInput{Name: "Tee", Price: 2500})
	assert.Equal(t, int64(1), mug.ID)
	assert.Equal(t, int64(2), tee.ID)

	updated, ok := rs.UpdateProduct(mug.ID, api.ProductInput{Name: "Big Mug", Price: 1500, Stock: 4})
	require.True(t, ok)
	assert.Equal(t, "Big Mug", updated.Name)

	_, ok = rs.UpdateProduct(99, api.ProductInput{Name: "x"})
	assert.False(t, ok)

	assert.True(t, rs.DeleteProduct(tee.ID))
	assert.False(t, rs.DeleteProduct(tee.ID))

	list := rs.Products()
	require.Len(t, list, 1)
	assert.Equal(t, "Big Mug", list[0].Name)
}

func TestRecordsSaleTakesStock(t *testing.T) {
	rs := NewRecords()
	mug := rs.CreateProduct(api.ProductInput{Name: "Mug", Price: 1200, Stock: 3})

	tx, err := rs.RecordTransaction(api.TransactionInput{
		Kind: api.KindSale, Amount: 2400, ProductID: &mug.ID, Quantity: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), tx.ID)
	assert.Equal(t, 1, rs.Products()[0].Stock)

	_, err = rs.RecordTransaction(api.TransactionInput{
		Kind: api.KindSale, Amount: 2400, ProductID: &mug.ID, Quantity: 2,
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	missing := int64(42)
	_, err = rs.RecordTransaction(api.TransactionInput{
		Kind: api.KindSale, Amount: 100, ProductID: &missing, Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrUnknownProduct)

	assert.Len(t, rs.Transactions(), 1)
}

func TestProductsHandlerValidation(t *testing.T) {
	h := NewProductsHandler(NewRecords(), discardLogger())

	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(t, http.MethodPost, "/api/products", api.ProductInput{Name: " ", Price: -1}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body validationError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "The name field is required.", body.Message)
	assert.Contains(t, body.Errors, "name")
	assert.Contains(t, body.Errors, "price")
	assert.NotContains(t, body.Errors, "stock")
}

func TestProductsHandlerCreateAndUpdate(t *testing.T) {
	h := NewProductsHandler(NewRecords(), discardLogger())

	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(t, http.MethodPost, "/api/products", api.ProductInput{Name: "Mug", Price: 1200}))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct{ Data api.Product }
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Mug", created.Data.Name)

	req := jsonRequest(t, http.MethodPut, "/api/products/1", api.ProductInput{Name: "Cup", Price: 900})
	req.SetPathValue("id", "1")
	rec = httptest.NewRecorder()
	h.Update(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = jsonRequest(t, http.MethodPut, "/api/products/7", api.ProductInput{Name: "Cup"})
	req.SetPathValue("id", "7")
	rec = httptest.NewRecorder()
	h.Update(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/products/abc", nil)
	req.SetPathValue("id", "abc")
	rec = httptest.NewRecorder()
	h.Delete(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWalletHandlerValidation(t *testing.T) {
	h := NewWalletHandler(NewRecords(), discardLogger())

	rec := httptest.NewRecorder()
	h.Record(rec, jsonRequest(t, http.MethodPost, "/api/wallet/transactions", api.TransactionInput{Kind: "refund", Amount: 0}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body validationError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "The selected kind is invalid.", body.Message)
	assert.Contains(t, body.Errors, "amount")

	rec = httptest.NewRecorder()
	h.Record(rec, jsonRequest(t, http.MethodPost, "/api/wallet/transactions", api.TransactionInput{Kind: api.KindExpense, Amount: 500, Description: "Ink"}))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestLoginFailureIsValidationError(t *testing.T) {
	store := cache.NewMemoryCache()
	sessions := middleware.NewSessionStore(config.Default().Mock, "XSRF-TOKEN", store, discardLogger())
	h := NewAuthHandler(testUsers(t), sessions, discardLogger())

	req := jsonRequest(t, http.MethodPost, "/login", api.Credentials{Email: "alice@example.com", Password: "nope"})
	req = req.WithContext(context.WithValue(req.Context(), middleware.SessionContextKey, &middleware.Session{ID: "g", CSRFToken: "t"}))

	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body validationError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, failedLogin, body.Message)
	assert.Equal(t, []string{failedLogin}, body.Errors["email"])
}

func TestHealthHandler(t *testing.T) {
	cfg := config.Default()
	h := NewHealthHandler(*cfg, cache.NewMemoryCache(), testUsers(t), discardLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "connected", resp.Cache.Status)
	assert.Equal(t, 2, resp.Users)
}
