package model

type Product struct {
	ID          string  `json:"id"`
	ImagePath   string  `json:"image_path"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Color       string  `json:"color"`
	Graphic     string  `json:"graphic"`
	Variant     string  `json:"variant"`
	Stock       int     `json:"stock"`
	Price       float64 `json:"price"`
	CreatedAt   string  `json:"created_at"`
}

type User struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	StylePreferences []string `json:"style_preferences"`
	ImageURL         string   `json:"image_url"`
	PurchaseHistory  []string `json:"purchase_history"`
	CartStatus       Cart     `json:"cart_status"`
	CreatedAt        string   `json:"created_at"`
}

type Cart struct {
	Items      []CartItem `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice float64    `json:"total_price"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	AddedAt   string `json:"added_at"`
}

// CatalogMetadata is the aggregate snapshot written by the catalog generator.
type CatalogMetadata struct {
	TotalProducts int            `json:"total_products"`
	Types         map[string]int `json:"types"`
	PriceRange    PriceRange     `json:"price_range"`
	StockStats    StockStats     `json:"stock_stats"`
	GeneratedAt   string         `json:"generated_at"`
}

type PriceRange struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

type StockStats struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
}

// UserMetadata is the aggregate snapshot written by the user generator.
type UserMetadata struct {
	TotalUsers  int       `json:"total_users"`
	GeneratedAt string    `json:"generated_at"`
	Stats       UserStats `json:"stats"`
}

type UserStats struct {
	TotalPurchases int     `json:"total_purchases"`
	TotalCartItems int     `json:"total_cart_items"`
	TotalCartValue float64 `json:"total_cart_value"`
}

// CatalogDocument is the on-disk layout of the products database.
type CatalogDocument struct {
	Products []Product       `json:"products"`
	Metadata CatalogMetadata `json:"metadata"`
}

// UserDocument is the on-disk layout of the users database.
type UserDocument struct {
	Users    []User       `json:"users"`
	Metadata UserMetadata `json:"metadata"`
}
