package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/listing"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// HomeSectionSize is how many products each home page section shows.
const HomeSectionSize = 4

// ListProductsInput selects one page of the filtered catalog.
type ListProductsInput struct {
	Filter listing.ProductFilter
	Page   pagination.Params
}

// HomePage holds the two product rails of the landing page.
type HomePage struct {
	Bestsellers []domain.Product `json:"bestsellers"`
	TopRated    []domain.Product `json:"top_rated"`
}

// ProductInput is the admin product form. Price is in major units.
type ProductInput struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int64
	Images      []string
}

// CatalogService serves the product catalog from the backend.
type CatalogService struct {
	backend backend.Client
	logger  *slog.Logger
	newID   func() string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(b backend.Client, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		backend: b,
		logger:  logger,
		newID:   uuid.NewString,
	}
}

// ListProducts returns one page of the catalog after filtering.
func (s *CatalogService) ListProducts(ctx context.Context, in ListProductsInput) (pagination.Result[domain.Product], error) {
	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		return pagination.Result[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return listing.Paginate(listing.FilterProducts(products, in.Filter), in.Page), nil
}

// Categories returns the distinct categories of the catalog.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return listing.Categories(products), nil
}

// Product returns a single product.
func (s *CatalogService) Product(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	p, err := s.backend.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Home fetches both home page rails concurrently.
func (s *CatalogService) Home(ctx context.Context) (*HomePage, error) {
	var best, top []domain.Product

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		best, err = s.backend.Bestsellers(gctx)
		if err != nil {
			return fmt.Errorf("bestsellers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		top, err = s.backend.TopRated(gctx)
		if err != nil {
			return fmt.Errorf("top rated: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &HomePage{
		Bestsellers: firstN(best, HomeSectionSize),
		TopRated:    firstN(top, HomeSectionSize),
	}, nil
}

// SaveProduct creates the product when in.ID is empty and updates it
// otherwise. Updates keep the product's purchases and reviews.
func (s *CatalogService) SaveProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	p, err := productFromInput(in)
	if err != nil {
		return nil, err
	}

	if p.ID == "" {
		p.ID = s.newID()
		p.Purchases = decimal.Zero
		p.ReviewCount = decimal.Zero
		p.Ratings = []decimal.Decimal{}
		if err := s.backend.AddProduct(ctx, p); err != nil {
			return nil, fmt.Errorf("add product: %w", err)
		}
		s.logger.InfoContext(ctx, "product created",
			slog.String("product_id", p.ID),
			slog.String("category", p.Category),
		)
		return &p, nil
	}

	existing, err := s.backend.GetProduct(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}
	p.Purchases = existing.Purchases
	p.ReviewCount = existing.ReviewCount
	p.Ratings = existing.Ratings

	if err := s.backend.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", p.ID))
	return &p, nil
}

// DeleteProduct removes a product from the catalog.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

func productFromInput(in ProductInput) (domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)
	category := strings.TrimSpace(in.Category)

	switch {
	case name == "":
		return domain.Product{}, apperrors.InvalidInput("name is required")
	case description == "":
		return domain.Product{}, apperrors.InvalidInput("description is required")
	case category == "":
		return domain.Product{}, apperrors.InvalidInput("category is required")
	case !in.Price.IsPositive():
		return domain.Product{}, apperrors.InvalidInput("price must be greater than 0")
	case in.Stock < 0:
		return domain.Product{}, apperrors.InvalidInput("stock must not be negative")
	}

	images := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		return domain.Product{}, apperrors.InvalidInput("at least one image is required")
	}

	price := domain.ToMinorUnits(in.Price)
	if !price.IsPositive() {
		return domain.Product{}, apperrors.InvalidInput("price must be at least 0.01")
	}

	return domain.Product{
		ID:          strings.TrimSpace(in.ID),
		Name:        name,
		Description: description,
		Category:    category,
		Price:       price,
		Stock:       decimal.NewFromInt(in.Stock),
		Images:      images,
	}, nil
}

func firstN(products []domain.Product, n int) []domain.Product {
	if len(products) <= n {
		if products == nil {
			return []domain.Product{}
		}
		return products
	}
	return products[:n]
}
