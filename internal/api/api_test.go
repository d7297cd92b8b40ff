package api_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/marcogenualdo/sanctum-client/internal/api"
	"github.com/marcogenualdo/sanctum-client/internal/auth"
	"github.com/marcogenualdo/sanctum-client/internal/cache"
	"github.com/marcogenualdo/sanctum-client/internal/client"
	"github.com/marcogenualdo/sanctum-client/internal/config"
	"github.com/marcogenualdo/sanctum-client/internal/server"
)

type harness struct {
	cfg      config.Config
	client   *client.Client
	auth     *api.AuthService
	products *api.ProductService
	wallet   *api.WalletService
	backend  cache.Cache
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default()
	cfg.Mock.Users = []config.MockUser{{Name: "Owner", Email: "owner@example.com", Password: "s3cret"}}
	cfg.CSRF.PollInterval = time.Millisecond
	cfg.CSRF.AttachWaitInterval = time.Millisecond
	cfg.CSRF.RetryDelay = time.Millisecond
	cfg.Routes.RedirectDelay = 5 * time.Millisecond
	cfg.Routes.LogoutGrace = 200 * time.Millisecond

	backend := cache.NewMemoryCache()
	srv, err := server.New(*cfg, backend, logger, server.WithPasswordCost(bcrypt.MinCost))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	cfg.Backend.URL = ts.URL

	c, err := client.New(*cfg, cache.NewMemoryCache(), logger)
	require.NoError(t, err)

	return &harness{
		cfg:      *cfg,
		client:   c,
		auth:     api.NewAuthService(c, cfg.Backend),
		products: api.NewProductService(c),
		wallet:   api.NewWalletService(c),
		backend:  backend,
	}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, err := h.auth.Login(context.Background(), api.Credentials{Email: "owner@example.com", Password: "s3cret"})
	require.NoError(t, err)
}

func TestLoginAndMe(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	user, err := h.auth.Login(ctx, api.Credentials{Email: "owner@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "Owner", user.Name)

	me, err := h.auth.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)
}

func TestLoginWithWrongPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.auth.Login(context.Background(), api.Credentials{Email: "owner@example.com", Password: "nope"})
	require.Error(t, err)

	var se *client.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.Status)
	assert.Equal(t, "These credentials do not match our records.", se.Message())
	assert.Contains(t, se.FieldErrors(), "email")
}

func TestProductsAndWallet(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	mug, err := h.products.Create(ctx, api.ProductInput{Name: "Mug", SKU: "MUG-1", Price: 1200, Stock: 10})
	require.NoError(t, err)
	assert.Equal(t, "Mug", mug.Name)

	mug, err = h.products.Update(ctx, mug.ID, api.ProductInput{Name: "Mug", SKU: "MUG-1", Price: 1500, Stock: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), mug.Price)

	_, err = h.wallet.Record(ctx, api.TransactionInput{Kind: api.KindSale, Amount: 4500, ProductID: &mug.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = h.wallet.Record(ctx, api.TransactionInput{Kind: api.KindExpense, Amount: 700, Description: "Shipping"})
	require.NoError(t, err)

	list, err := h.products.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 7, list[0].Stock)

	txs, err := h.wallet.Transactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Equal(t, int64(3800), api.Balance(txs))

	require.NoError(t, h.products.Delete(ctx, mug.ID))
	list, err = h.products.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExpiredTokenIsReplayedTransparently(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	// Wipe every server session. The next mutating request carries a token the
	// server no longer knows, gets 419, and is replayed with a fresh token. The
	// fresh session is a guest one, so the replay ends in a redirect to login.
	require.NoError(t, h.backend.Close())

	_, err := h.products.Create(ctx, api.ProductInput{Name: "Mug"})
	require.Error(t, err)
	assert.True(t, auth.IsSilent(err))
	assert.Equal(t, auth.KindRedirect, auth.KindOf(err))

	loc := h.client.Navigator().(*client.Location)
	assert.Eventually(t, func() bool {
		return len(loc.History()) == 1 && loc.History()[0] == h.cfg.Routes.Login
	}, time.Second, 5*time.Millisecond)
}

func TestLogoutSilencesRacingRequests(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	require.NoError(t, h.auth.Logout(ctx))

	_, err := h.auth.Me(ctx)
	require.Error(t, err)
	assert.True(t, auth.IsLoggingOut(err))
	assert.Empty(t, h.client.Navigator().(*client.Location).History())
}
