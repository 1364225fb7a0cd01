package wishlist

import (
	"context"
	"fmt"

	"github.com/akseline/store-backend-go/internal/catalog"
)

// CatalogLookup validates that a saved product actually exists.
type CatalogLookup interface {
	Lookup(ctx context.Context, productID string) (catalog.PriceInfo, error)
}

type Service struct {
	repo    Repository
	catalog CatalogLookup
}

func NewService(repo Repository, cat CatalogLookup) *Service {
	return &Service{repo: repo, catalog: cat}
}

func (s *Service) Get(ctx context.Context, userID string) (*Wishlist, error) {
	return s.repo.Get(ctx, userID)
}

func (s *Service) AddProduct(ctx context.Context, userID, productID string) (*Wishlist, error) {
	if _, err := s.catalog.Lookup(ctx, productID); err != nil {
		return nil, fmt.Errorf("lookup product %s: %w", productID, err)
	}
	return s.repo.AddProduct(ctx, userID, productID)
}

func (s *Service) RemoveProduct(ctx context.Context, userID, productID string) (*Wishlist, error) {
	return s.repo.RemoveProduct(ctx, userID, productID)
}
