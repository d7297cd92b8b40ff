package api

import "time"

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
}

// Product is an inventory item. Prices are in cents.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	Price     int64     `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductInput struct {
	Name  string `json:"name"`
	SKU   string `json:"sku"`
	Price int64  `json:"price"`
	Stock int    `json:"stock"`
}

type TransactionKind string

const (
	KindSale    TransactionKind = "sale"
	KindExpense TransactionKind = "expense"
)

// Transaction is a wallet entry. Amounts are in cents.
type Transaction struct {
	ID          int64           `json:"id"`
	Kind        TransactionKind `json:"kind"`
	Amount      int64           `json:"amount"`
	Description string          `json:"description"`
	ProductID   *int64          `json:"product_id,omitempty"`
	Quantity    int             `json:"quantity,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

type TransactionInput struct {
	Kind        TransactionKind `json:"kind"`
	Amount      int64           `json:"amount"`
	Description string          `json:"description"`
	ProductID   *int64          `json:"product_id,omitempty"`
	Quantity    int             `json:"quantity,omitempty"`
}

// envelope is the {"data": ...} wrapper Laravel API resources use.
type envelope[T any] struct {
	Data T `json:"data"`
}
