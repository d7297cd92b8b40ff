package api

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/marcogenualdo/sanctum-client/internal/client"
)

const transactionsPath = "/api/wallet/transactions"

type WalletService struct {
	client *client.Client
}

func NewWalletService(c *client.Client) *WalletService {
	return &WalletService{client: c}
}

func (s *WalletService) Transactions(ctx context.Context) ([]Transaction, error) {
	var out envelope[[]Transaction]
	if err := s.client.GetJSON(ctx, transactionsPath, &out); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out.Data, nil
}

func (s *WalletService) Record(ctx context.Context, in TransactionInput) (*Transaction, error) {
	var out envelope[Transaction]
	if err := s.client.PostJSON(ctx, transactionsPath, in, &out); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}
	return &out.Data, nil
}

// Balance is sales minus expenses.
func Balance(txs []Transaction) int64 {
	var total int64
	for _, tx := range txs {
		switch tx.Kind {
		case KindSale:
			total += tx.Amount
		case KindExpense:
			total -= tx.Amount
		}
	}
	return total
}

// Share is a collaborator's weight in a revenue split.
type Share struct {
	Collaborator string `json:"collaborator"`
	Weight       int64  `json:"weight"`
}

type Allocation struct {
	Collaborator string `json:"collaborator"`
	Amount       int64  `json:"amount"`
}

var (
	ErrNoShares       = errors.New("at least one share is required")
	ErrInvalidWeight  = errors.New("share weights must be positive")
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// SplitRevenue divides total cents among shares in proportion to their
// weights. Leftover cents go to the largest remainders (ties to the earlier
// share), so the allocations always add up to total.
func SplitRevenue(total int64, shares []Share) ([]Allocation, error) {
	if len(shares) == 0 {
		return nil, ErrNoShares
	}
	if total < 0 {
		return nil, ErrNegativeAmount
	}

	// total*weight and the weight sum can exceed int64, so the split is done
	// in big integers. Every share is at most total and fits back.
	weights := new(big.Int)
	for _, s := range shares {
		if s.Weight <= 0 {
			return nil, fmt.Errorf("%w: %s has %d", ErrInvalidWeight, s.Collaborator, s.Weight)
		}
		weights.Add(weights, big.NewInt(s.Weight))
	}

	out := make([]Allocation, len(shares))
	rem := make([]*big.Int, len(shares))
	order := make([]int, len(shares))
	bigTotal := big.NewInt(total)
	var given int64
	for i, s := range shares {
		q, r := new(big.Int).QuoRem(new(big.Int).Mul(bigTotal, big.NewInt(s.Weight)), weights, new(big.Int))
		out[i] = Allocation{Collaborator: s.Collaborator, Amount: q.Int64()}
		rem[i] = r
		given += q.Int64()
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return rem[order[a]].Cmp(rem[order[b]]) > 0
	})
	leftover := total - given
	for i := 0; i < len(order) && int64(i) < leftover; i++ {
		out[order[i]].Amount++
	}

	return out, nil
}
