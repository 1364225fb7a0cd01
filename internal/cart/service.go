package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/akseline/store-backend-go/internal/catalog"
)

var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// CatalogLookup is the pricing collaborator. Implemented by catalog.Repository.
type CatalogLookup interface {
	Lookup(ctx context.Context, productID string) (catalog.PriceInfo, error)
}

// Service is the cart aggregate. All mutations touch only the owner's cart
// row, run under its row lock, and keep the stored total derived from the
// lines.
type Service struct {
	db      *sql.DB
	repo    Repository
	catalog CatalogLookup
	cache   Cache
	logger  *log.Logger
}

func NewService(db *sql.DB, repo Repository, cat CatalogLookup, cache Cache, logger *log.Logger) *Service {
	return &Service{db: db, repo: repo, catalog: cat, cache: cache, logger: logger}
}

// GetCart returns the owner's cart, creating an empty one on first access.
func (s *Service) GetCart(ctx context.Context, userID string) (*Cart, error) {
	if s.cache != nil {
		if c, err := s.cache.Get(ctx, userID); err == nil {
			return c, nil
		} else if !errors.Is(err, ErrCacheMiss) {
			s.logger.Printf("cart cache read for user %s: %v", userID, err)
		}
	}

	c, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.fillCache(ctx, userID, c)
	return c, nil
}

func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	info, err := s.catalog.Lookup(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("lookup product %s: %w", productID, err)
	}

	return s.mutate(ctx, userID, func(c *Cart) {
		for i := range c.Lines {
			if c.Lines[i].ProductID == productID {
				c.Lines[i].Quantity += quantity
				c.Lines[i].UnitPrice = info.UnitPrice
				return
			}
		}
		c.Lines = append(c.Lines, Line{
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: info.UnitPrice,
		})
	})
}

// RemoveItem deletes the product's line. Removing an absent product is a
// no-op, not an error.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	return s.mutate(ctx, userID, func(c *Cart) {
		kept := c.Lines[:0]
		for _, ln := range c.Lines {
			if ln.ProductID != productID {
				kept = append(kept, ln)
			}
		}
		c.Lines = kept
	})
}

// Clear empties the cart lines and zeroes the total. The cart row survives.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.repo.ClearCart(ctx, userID); err != nil {
		return err
	}
	s.InvalidateCache(ctx, userID)
	return nil
}

// GetCartForUpdate and ClearCartTx expose the repository's transactional
// variants so the order workflow can snapshot and clear the cart inside its
// own unit of work.
func (s *Service) GetCartForUpdate(ctx context.Context, tx *sql.Tx, userID string) (*Cart, error) {
	return s.repo.GetCartForUpdate(ctx, tx, userID)
}

func (s *Service) ClearCartTx(ctx context.Context, tx *sql.Tx, cartID string) error {
	return s.repo.ClearCartTx(ctx, tx, cartID)
}

func (s *Service) InvalidateCache(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Printf("cart cache invalidate for user %s: %v", userID, err)
	}
}

func (s *Service) loadOrCreate(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = &Cart{
			ID:        uuid.NewString(),
			UserID:    userID,
			UpdatedAt: time.Now().UTC(),
		}
	}
	return c, nil
}

// mutate applies fn to the owner's cart while its row lock is held, so two
// concurrent mutations for the same owner cannot lose each other's writes.
func (s *Service) mutate(ctx context.Context, userID string, fn func(c *Cart)) (*Cart, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := s.repo.GetOrCreateCartForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	fn(c)
	c.RecalculateTotal()

	if err := s.repo.SaveCartTx(ctx, tx, c); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.fillCache(ctx, userID, c)
	return c, nil
}

func (s *Service) fillCache(ctx context.Context, userID string, c *Cart) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, userID, c); err != nil {
		s.logger.Printf("cart cache write for user %s: %v", userID, err)
	}
}
