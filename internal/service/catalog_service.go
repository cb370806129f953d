package service

import (
	"context"
	"errors"
	"sort"

	"fashnary/api/internal/apperrors"
	"fashnary/api/internal/model"
	"fashnary/api/internal/repository"
	"fashnary/api/internal/service/display"

	"golang.org/x/sync/errgroup"
)

const (
	SortByStock     = "stock"
	SortByPrice     = "price"
	SortByCreatedAt = "created_at"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// SortOptions selects the product ordering. An empty Field keeps catalog order.
type SortOptions struct {
	Field string
	Order string
}

type CatalogService struct {
	repo        *repository.CatalogRepository
	formatter   *display.Formatter
	concurrency int
}

func NewCatalogService(repo *repository.CatalogRepository, formatter *display.Formatter, concurrency int) *CatalogService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &CatalogService{repo: repo, formatter: formatter, concurrency: concurrency}
}

func (s *CatalogService) ListProducts(ctx context.Context, opts SortOptions) ([]model.Product, error) {
	less, err := productOrder(opts)
	if err != nil {
		return nil, err
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if less != nil {
		sort.SliceStable(products, func(i, j int) bool {
			return less(products[i], products[j])
		})
	}
	return products, nil
}

// Stockouts lists products with the lowest stock first.
func (s *CatalogService) Stockouts(ctx context.Context) ([]model.Product, error) {
	return s.ListProducts(ctx, SortOptions{Field: SortByStock, Order: OrderAsc})
}

func productOrder(opts SortOptions) (func(a, b model.Product) bool, error) {
	switch opts.Order {
	case "", OrderAsc, OrderDesc:
	default:
		return nil, apperrors.InvalidArgument("invalid sort order. Must be one of: asc, desc")
	}
	if opts.Field == "" {
		return nil, nil
	}

	var asc func(a, b model.Product) bool
	switch opts.Field {
	case SortByStock:
		asc = func(a, b model.Product) bool { return a.Stock < b.Stock }
	case SortByPrice:
		asc = func(a, b model.Product) bool { return a.Price < b.Price }
	case SortByCreatedAt:
		// ISO-8601 timestamps order lexically.
		asc = func(a, b model.Product) bool { return a.CreatedAt < b.CreatedAt }
	default:
		return nil, apperrors.InvalidArgument("invalid sort field. Must be one of: stock, price, created_at")
	}

	if opts.Order == OrderDesc {
		return func(a, b model.Product) bool { return asc(b, a) }, nil
	}
	return asc, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (model.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogService) GetProductDisplay(ctx context.Context, id string) (model.ProductDisplay, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return model.ProductDisplay{}, err
	}

	out, err := s.formatter.FormatProduct(ctx, p)
	if err != nil {
		return model.ProductDisplay{}, displayError(err)
	}
	return out, nil
}

// ListProductDisplays formats every product with at most s.concurrency images
// in flight. The first failure cancels the rest.
func (s *CatalogService) ListProductDisplays(ctx context.Context) ([]model.ProductDisplay, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.ProductDisplay, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, p := range products {
		g.Go(func() error {
			d, err := s.formatter.FormatProduct(gctx, p)
			if err != nil {
				return err
			}
			out[i] = d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, displayError(err)
	}
	return out, nil
}

func (s *CatalogService) ProductMetadata(ctx context.Context) (model.CatalogMetadata, error) {
	return s.repo.ProductMetadata(ctx)
}

func (s *CatalogService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

// UserIDs returns user ids as stored, in document order.
func (s *CatalogService) UserIDs(ctx context.Context) ([]string, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (s *CatalogService) GetUser(ctx context.Context, id string) (model.User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *CatalogService) GetUserDisplay(ctx context.Context, id string) (model.UserDisplay, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return model.UserDisplay{}, err
	}

	out, err := s.formatter.FormatUser(ctx, u)
	if err != nil {
		return model.UserDisplay{}, displayError(err)
	}
	return out, nil
}

// UserPurchases resolves the user's purchase history to products.
// Ids no longer present in the catalog are skipped.
func (s *CatalogService) UserPurchases(ctx context.Context, id string) ([]model.Product, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]model.Product, 0, len(u.PurchaseHistory))
	for _, pid := range u.PurchaseHistory {
		if p, ok := byID[pid]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *CatalogService) UserCart(ctx context.Context, id string) (model.Cart, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return model.Cart{}, err
	}
	if u.CartStatus.Items == nil {
		u.CartStatus.Items = []model.CartItem{}
	}
	return u.CartStatus, nil
}

func (s *CatalogService) UserStylePreferences(ctx context.Context, id string) ([]string, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.StylePreferences == nil {
		return []string{}, nil
	}
	return u.StylePreferences, nil
}

func (s *CatalogService) UserMetadata(ctx context.Context) (model.UserMetadata, error) {
	return s.repo.UserMetadata(ctx)
}

// displayError reports image failures as internal errors carrying the
// formatter's message. Cancellation passes through unchanged.
func displayError(err error) error {
	var imgErr *display.ImageError
	if errors.As(err, &imgErr) {
		return apperrors.Internal(imgErr.Message, imgErr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperrors.Internal(err.Error(), err)
}
