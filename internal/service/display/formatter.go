package display

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"

	"fashnary/api/internal/model"

	"github.com/disintegration/imaging"
	"github.com/vincent-petithory/dataurl"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	ProductMaxSide = 800
	UserMaxSide    = 400
	JPEGQuality    = 85
)

// ImageError is returned when a record's image cannot be embedded.
// It carries the original record so the caller can still report it.
type ImageError struct {
	Message string         `json:"error"`
	Product *model.Product `json:"product_details,omitempty"`
	User    *model.User    `json:"user_details,omitempty"`
}

func (e *ImageError) Error() string {
	return e.Message
}

// Formatter turns raw records into display models. Image paths are
// resolved against root.
type Formatter struct {
	root string
}

func NewFormatter(root string) *Formatter {
	return &Formatter{root: root}
}

func (f *Formatter) FormatProduct(ctx context.Context, p model.Product) (model.ProductDisplay, error) {
	img, err := f.embed(ctx, p.ImagePath, ProductMaxSide)
	if err != nil {
		return model.ProductDisplay{}, &ImageError{Message: imageErrorMessage("product", err), Product: &p}
	}

	return model.ProductDisplay{
		ID:          p.ID,
		Image:       img,
		Description: p.Description,
		Type:        TitleCase(p.Type),
		Color:       TitleCase(p.Color),
		Graphic:     p.Graphic,
		Variant:     p.Variant,
		Stock:       p.Stock,
		Price:       FormatPrice(p.Price),
		CreatedAt:   p.CreatedAt,
		StockStatus: StockStatus(p.Stock),
	}, nil
}

func (f *Formatter) FormatUser(ctx context.Context, u model.User) (model.UserDisplay, error) {
	img, err := f.embed(ctx, u.ImageURL, UserMaxSide)
	if err != nil {
		return model.UserDisplay{}, &ImageError{Message: imageErrorMessage("user", err), User: &u}
	}

	return model.UserDisplay{
		ID:               u.ID,
		Image:            img,
		Name:             u.Name,
		Description:      u.Description,
		StylePreferences: u.StylePreferences,
		PurchaseHistory:  u.PurchaseHistory,
		CartStatus:       u.CartStatus,
		CreatedAt:        u.CreatedAt,
	}, nil
}

var errImageNotFound = errors.New("image not found")

func imageErrorMessage(entity string, err error) string {
	if errors.Is(err, errImageNotFound) {
		return "Image not found"
	}
	return fmt.Sprintf("Error processing %s: %v", entity, err)
}

// embed loads the image at rel, caps its longer side at maxSide and returns
// it as a JPEG data URL.
func (f *Formatter) embed(ctx context.Context, rel string, maxSide int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if rel == "" {
		return "", errImageNotFound
	}

	file, err := os.Open(filepath.Join(f.root, filepath.FromSlash(rel)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errImageNotFound
		}
		return "", err
	}
	defer file.Close()

	src, err := imaging.Decode(file)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	data, err := Encode(src, maxSide)
	if err != nil {
		return "", err
	}
	return dataurl.New(data, "image/jpeg").String(), nil
}

// Encode converts img to RGB, downscales it so neither side exceeds maxSide
// and returns quality-85 JPEG bytes.
func Encode(img image.Image, maxSide int) ([]byte, error) {
	img = toRGB(img)

	b := img.Bounds()
	if b.Dx() > maxSide || b.Dy() > maxSide {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// toRGB drops any alpha channel. JPEG-decoded YCbCr images are already 3-channel.
func toRGB(img image.Image) image.Image {
	if _, ok := img.(*image.YCbCr); ok {
		return img
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.A = 0xff
		return c
	})
}

// StockStatus labels a stock count for display.
func StockStatus(stock int) string {
	switch {
	case stock <= 0:
		return "Out of Stock"
	case stock < 10:
		return "Low Stock"
	default:
		return "In Stock"
	}
}

func FormatPrice(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}

// TitleCase capitalizes every word and lower-cases the rest, so "t-shirt"
// becomes "T-Shirt". A Caser keeps state, so each call builds its own.
func TitleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
