package api

import (
	"context"
	"fmt"

	"github.com/marcogenualdo/sanctum-client/internal/client"
)

const productsPath = "/api/products"

type ProductService struct {
	client *client.Client
}

func NewProductService(c *client.Client) *ProductService {
	return &ProductService{client: c}
}

func (s *ProductService) List(ctx context.Context) ([]Product, error) {
	var out envelope[[]Product]
	if err := s.client.GetJSON(ctx, productsPath, &out); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out.Data, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*Product, error) {
	var out envelope[Product]
	if err := s.client.PostJSON(ctx, productsPath, in, &out); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &out.Data, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, in ProductInput) (*Product, error) {
	var out envelope[Product]
	if err := s.client.PutJSON(ctx, fmt.Sprintf("%s/%d", productsPath, id), in, &out); err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	return &out.Data, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.client.Delete(ctx, fmt.Sprintf("%s/%d", productsPath, id)); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return nil
}
