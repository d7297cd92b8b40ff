package api

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(allocs []Allocation) int64 {
	var total int64
	for _, a := range allocs {
		total += a.Amount
	}
	return total
}

func TestSplitRevenue(t *testing.T) {
	tests := []struct {
		name   string
		total  int64
		shares []Share
		want   []int64
	}{
		{
			name:   "even split",
			total:  900,
			shares: []Share{{"ana", 1}, {"ben", 1}, {"cy", 1}},
			want:   []int64{300, 300, 300},
		},
		{
			name:   "leftover cent goes to earliest tie",
			total:  100,
			shares: []Share{{"ana", 1}, {"ben", 1}, {"cy", 1}},
			want:   []int64{34, 33, 33},
		},
		{
			name:   "largest remainder wins",
			total:  1000,
			shares: []Share{{"ana", 3}, {"ben", 3}, {"cy", 1}},
			want:   []int64{429, 428, 143},
		},
		{
			name:   "zero total",
			total:  0,
			shares: []Share{{"ana", 2}, {"ben", 5}},
			want:   []int64{0, 0},
		},
		{
			name:   "single share takes everything",
			total:  12345,
			shares: []Share{{"ana", 7}},
			want:   []int64{12345},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitRevenue(tt.total, tt.shares)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))

			for i, a := range got {
				assert.Equal(t, tt.shares[i].Collaborator, a.Collaborator)
				assert.Equal(t, tt.want[i], a.Amount, a.Collaborator)
			}
			assert.Equal(t, tt.total, sum(got))
		})
	}
}

func TestSplitRevenueAlwaysSumsToTotal(t *testing.T) {
	shares := []Share{{"a", 7}, {"b", 13}, {"c", 29}, {"d", 1}}
	for total := int64(0); total < 500; total++ {
		got, err := SplitRevenue(total, shares)
		require.NoError(t, err)
		require.Equal(t, total, sum(got), "total %d", total)
	}
}

func TestSplitRevenueLargeValues(t *testing.T) {
	tests := []struct {
		name   string
		total  int64
		shares []Share
	}{
		{"product overflows int64", 5_000_000_000_000, []Share{{"a", 3_000_000}, {"b", 2_000_000}}},
		{"weight sum overflows int64", 999_999_999_999, []Share{{"a", math.MaxInt64}, {"b", math.MaxInt64}, {"c", 1}}},
		{"max total", math.MaxInt64, []Share{{"a", 7}, {"b", math.MaxInt64 / 3}, {"c", 11}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitRevenue(tt.total, tt.shares)
			require.NoError(t, err)
			require.Len(t, got, len(tt.shares))
			assert.Equal(t, tt.total, sum(got))
			for _, a := range got {
				assert.GreaterOrEqual(t, a.Amount, int64(0))
			}
		})
	}

	got, err := SplitRevenue(5_000_000_000_000, []Share{{"a", 3_000_000}, {"b", 2_000_000}})
	require.NoError(t, err)
	assert.Equal(t, int64(3_000_000_000_000), got[0].Amount)
	assert.Equal(t, int64(2_000_000_000_000), got[1].Amount)
}

func TestSplitRevenueRejectsBadInput(t *testing.T) {
	_, err := SplitRevenue(100, nil)
	assert.ErrorIs(t, err, ErrNoShares)

	_, err = SplitRevenue(100, []Share{{"a", 1}, {"b", 0}})
	assert.ErrorIs(t, err, ErrInvalidWeight)

	_, err = SplitRevenue(-1, []Share{{"a", 1}})
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestBalance(t *testing.T) {
	txs := []Transaction{
		{Kind: KindSale, Amount: 5000},
		{Kind: KindExpense, Amount: 1200},
		{Kind: KindSale, Amount: 300},
	}
	assert.Equal(t, int64(4100), Balance(txs))
	assert.Zero(t, Balance(nil))
}
