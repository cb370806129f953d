package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"fashnary/api/internal/apperrors"
	"fashnary/api/internal/model"
)

// UserIDPrefix is the literal prefix of canonical user identifiers.
const UserIDPrefix = "user_"

// CatalogRepository reads the products and users JSON documents.
// Nothing is cached: every call reads the current file from disk.
type CatalogRepository struct {
	productsPath string
	usersPath    string
}

func NewCatalogRepository(productsPath, usersPath string) *CatalogRepository {
	return &CatalogRepository{productsPath: productsPath, usersPath: usersPath}
}

// LoadCatalog reads and validates the products document.
func (r *CatalogRepository) LoadCatalog(ctx context.Context) (*model.CatalogDocument, error) {
	var doc model.CatalogDocument
	if err := readDocument(ctx, r.productsPath, &doc); err != nil {
		return nil, apperrors.Internal(fmt.Sprintf("Error loading products: %v", err), err)
	}
	if err := ValidateCatalog(doc.Products); err != nil {
		return nil, apperrors.Internal(fmt.Sprintf("Error loading products: %v", err), err)
	}
	return &doc, nil
}

// LoadUsers reads and validates the users document.
func (r *CatalogRepository) LoadUsers(ctx context.Context) (*model.UserDocument, error) {
	var doc model.UserDocument
	if err := readDocument(ctx, r.usersPath, &doc); err != nil {
		return nil, apperrors.Internal(fmt.Sprintf("Error loading users: %v", err), err)
	}
	if err := ValidateUsers(doc.Users); err != nil {
		return nil, apperrors.Internal(fmt.Sprintf("Error loading users: %v", err), err)
	}
	return &doc, nil
}

// ListProducts returns products in catalog order.
func (r *CatalogRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	doc, err := r.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Products, nil
}

// GetProduct returns the product with the given id
func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (model.Product, error) {
	products, err := r.ListProducts(ctx)
	if err != nil {
		return model.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, apperrors.NotFound("Product")
}

func (r *CatalogRepository) ProductMetadata(ctx context.Context) (model.CatalogMetadata, error) {
	doc, err := r.LoadCatalog(ctx)
	if err != nil {
		return model.CatalogMetadata{}, err
	}
	return doc.Metadata, nil
}

func (r *CatalogRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	doc, err := r.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Users, nil
}

// GetUser returns the user with the given id. "user_3" and "3" name the same user.
func (r *CatalogRepository) GetUser(ctx context.Context, id string) (model.User, error) {
	users, err := r.ListUsers(ctx)
	if err != nil {
		return model.User{}, err
	}
	want := CanonicalUserID(id)
	for _, u := range users {
		if CanonicalUserID(u.ID) == want {
			return u, nil
		}
	}
	return model.User{}, apperrors.NotFound("User")
}

func (r *CatalogRepository) UserMetadata(ctx context.Context) (model.UserMetadata, error) {
	doc, err := r.LoadUsers(ctx)
	if err != nil {
		return model.UserMetadata{}, err
	}
	return doc.Metadata, nil
}

// CanonicalUserID maps both "user_3" and "3" to "user_3".
func CanonicalUserID(id string) string {
	id = strings.TrimSpace(id)
	return UserIDPrefix + strings.TrimPrefix(id, UserIDPrefix)
}

// ValidateCatalog checks product ids are unique and stock and price are non-negative.
func ValidateCatalog(products []model.Product) error {
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if p.ID == "" {
			return fmt.Errorf("product with empty id")
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate product id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Stock < 0 {
			return fmt.Errorf("product %q has negative stock %d", p.ID, p.Stock)
		}
		if p.Price < 0 {
			return fmt.Errorf("product %q has negative price %.2f", p.ID, p.Price)
		}
	}
	return nil
}

// ValidateUsers checks user ids are unique in canonical form and cart quantities are positive.
func ValidateUsers(users []model.User) error {
	seen := make(map[string]struct{}, len(users))
	for _, u := range users {
		id := CanonicalUserID(u.ID)
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate user id %q", u.ID)
		}
		seen[id] = struct{}{}
		for _, item := range u.CartStatus.Items {
			if item.Quantity < 1 {
				return fmt.Errorf("user %q has cart item %q with quantity %d", u.ID, item.ProductID, item.Quantity)
			}
		}
	}
	return nil
}

func readDocument(ctx context.Context, path string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
