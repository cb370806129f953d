package model

// ProductDisplay is a product prepared for the storefront: embedded image,
// title-cased labels, formatted price and a stock label.
type ProductDisplay struct {
	ID          string `json:"id"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Color       string `json:"color"`
	Graphic     string `json:"graphic"`
	Variant     string `json:"variant"`
	Stock       int    `json:"stock"`
	Price       string `json:"price"`
	CreatedAt   string `json:"created_at"`
	StockStatus string `json:"stock_status"`
}

type UserDisplay struct {
	ID               string   `json:"id"`
	Image            string   `json:"image"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	StylePreferences []string `json:"style_preferences"`
	PurchaseHistory  []string `json:"purchase_history"`
	CartStatus       Cart     `json:"cart_status"`
	CreatedAt        string   `json:"created_at"`
}
