package handlers

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/marcogenualdo/sanctum-client/internal/api"
)

var (
	ErrUnknownProduct    = errors.New("unknown product")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Records is the emulator's inventory and wallet ledger.
type Records struct {
	mu           sync.Mutex
	nextProduct  int64
	nextTx       int64
	products     map[int64]api.Product
	transactions []api.Transaction
	now          func() time.Time
}

func NewRecords() *Records {
	return &Records{
		products: make(map[int64]api.Product),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (rs *Records) Products() []api.Product {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	out := make([]api.Product, 0, len(rs.products))
	for _, p := range rs.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (rs *Records) CreateProduct(in api.ProductInput) api.Product {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.nextProduct++
	now := rs.now()
	p := api.Product{
		ID:        rs.nextProduct,
		Name:      in.Name,
		SKU:       in.SKU,
		Price:     in.Price,
		Stock:     in.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	rs.products[p.ID] = p
	return p
}

func (rs *Records) UpdateProduct(id int64, in api.ProductInput) (api.Product, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	p, ok := rs.products[id]
	if !ok {
		return api.Product{}, false
	}
	p.Name = in.Name
	p.SKU = in.SKU
	p.Price = in.Price
	p.Stock = in.Stock
	p.UpdatedAt = rs.now()
	rs.products[id] = p
	return p, true
}

func (rs *Records) DeleteProduct(id int64) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, ok := rs.products[id]; !ok {
		return false
	}
	delete(rs.products, id)
	return true
}

func (rs *Records) Transactions() []api.Transaction {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return append([]api.Transaction(nil), rs.transactions...)
}

// RecordTransaction appends to the ledger. A sale tied to a product takes the
// sold quantity out of its stock.
func (rs *Records) RecordTransaction(in api.TransactionInput) (api.Transaction, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if in.ProductID != nil {
		p, ok := rs.products[*in.ProductID]
		if !ok {
			return api.Transaction{}, ErrUnknownProduct
		}
		if in.Kind == api.KindSale {
			if in.Quantity > p.Stock {
				return api.Transaction{}, ErrInsufficientStock
			}
			p.Stock -= in.Quantity
			p.UpdatedAt = rs.now()
			rs.products[p.ID] = p
		}
	}

	rs.nextTx++
	tx := api.Transaction{
		ID:          rs.nextTx,
		Kind:        in.Kind,
		Amount:      in.Amount,
		Description: in.Description,
		ProductID:   in.ProductID,
		Quantity:    in.Quantity,
		OccurredAt:  rs.now(),
	}
	rs.transactions = append(rs.transactions, tx)
	return tx, nil
}
