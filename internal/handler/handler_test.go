package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fashnary/api/internal/handler"
	"fashnary/api/internal/model"
	"fashnary/api/internal/repository"
	"fashnary/api/internal/service"
	"fashnary/api/internal/service/display"
	"fashnary/api/internal/service/gemini"
	"fashnary/api/internal/service/tryon"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	calls int
	text  string
	err   error
}

func (s *stubGenerator) GenerateContent(ctx context.Context, model string, req *gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &gemini.GenerateContentResponse{
		Candidates: []gemini.Candidate{{Content: gemini.Content{Parts: []gemini.Part{{Text: s.text}}}}},
	}, nil
}

type testServer struct {
	srv       *httptest.Server
	handler   http.Handler
	generator *stubGenerator
	logs      *bytes.Buffer
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 30, 30))
	for i := 0; i < 30; i++ {
		img.Set(i, i, color.RGBA{G: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func writeDoc(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	writeFile(t, path, data)
}

func setup(t *testing.T, apiKey string) *testServer {
	t.Helper()
	dir := t.TempDir()

	products := []model.Product{
		{ID: "1", ImagePath: "images/1.png", Type: "t-shirt", Color: "black", Stock: 12, Price: 19.99, CreatedAt: "2025-05-01T10:00:01"},
		{ID: "2", ImagePath: "images/2.png", Type: "scarf", Color: "navy", Stock: 0, Price: 99.5, CreatedAt: "2025-05-01T10:00:02"},
		{ID: "3", ImagePath: "images/missing.png", Type: "sweater", Color: "cream", Stock: 5, Price: 59.99, CreatedAt: "2025-05-01T10:00:03"},
	}
	users := []model.User{
		{
			ID:               "user_1",
			Name:             "Marcus W.",
			ImageURL:         "users/1.png",
			StylePreferences: []string{"streetwear"},
			PurchaseHistory:  []string{"2", "gone"},
			CartStatus:       model.Cart{Items: []model.CartItem{{ProductID: "1", Quantity: 2}}, TotalItems: 2, TotalPrice: 39.98},
		},
	}

	productsPath := filepath.Join(dir, "product_database.json")
	usersPath := filepath.Join(dir, "users_database.json")
	writeDoc(t, productsPath, model.CatalogDocument{Products: products, Metadata: model.CatalogMetadata{TotalProducts: 3}})
	writeDoc(t, usersPath, model.UserDocument{Users: users, Metadata: model.UserMetadata{TotalUsers: 1}})

	pngData := encodePNG(t)
	writeFile(t, filepath.Join(dir, "images/1.png"), pngData)
	writeFile(t, filepath.Join(dir, "images/2.png"), pngData)
	writeFile(t, filepath.Join(dir, "users/1.png"), pngData)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, nil))
	repo := repository.NewCatalogRepository(productsPath, usersPath)
	catalog := service.NewCatalogService(repo, display.NewFormatter(dir), 4)

	gen := &stubGenerator{text: "A man wearing a black graphic t-shirt in a bright studio."}
	pipeline := tryon.NewPipeline(tryon.Config{APIKey: apiKey, CallTimeout: time.Second}, gen, logger)

	h := handler.NewHandler(catalog, pipeline, logger, handler.Options{MaxBodyBytes: 1 << 20})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, handler: h, generator: gen, logs: logs}
}

func (ts *testServer) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(ts.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (ts *testServer) post(t *testing.T, path string, body []byte) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(ts.srv.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

type errorBody struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func decodeError(t *testing.T, body []byte) errorBody {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e
}

func productIDs(t *testing.T, body []byte) []string {
	t.Helper()
	var products []model.Product
	require.NoError(t, json.Unmarshal(body, &products))
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	ts := setup(t, "key")

	resp, body := ts.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestListProducts(t *testing.T) {
	ts := setup(t, "key")

	resp, body := ts.get(t, "/products")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, []string{"1", "2", "3"}, productIDs(t, body))

	resp, body = ts.get(t, "/products?sort_by=price&order=desc")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"2", "3", "1"}, productIDs(t, body))
}

func TestListProducts_InvalidSort(t *testing.T) {
	ts := setup(t, "key")

	resp, body := ts.get(t, "/products?sort_by=name")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "invalid sort field. Must be one of: stock, price, created_at", e.Detail)
	assert.Equal(t, "INVALID_ARGUMENT", e.Code)

	resp, body = ts.get(t, "/products?order=bogus")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e = decodeError(t, body)
	assert.Equal(t, "invalid sort order. Must be one of: asc, desc", e.Detail)
	assert.Equal(t, "INVALID_ARGUMENT", e.Code)
}

func TestStockouts(t *testing.T) {
	ts := setup(t, "key")

	resp, body := ts.get(t, "/products/sort/stockouts")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"2", "3", "1"}, productIDs(t, body))
}

func TestGetProduct(t *testing.T) {
	ts := setup(t, "key")

	resp, body := ts.get(t, "/products/2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p model.Product
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "scarf", p.Type)

	resp, body = ts.get(t, "/products/404")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, errorBody{Detail: "Product not found", Code: "NOT_FOUND"}, decodeError(t, body))
}

func TestGetProductDisplay(t *testing.T) {
	ts := setup(t, "key")

	resp, body := ts.get(t, "/products/1/display")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var d model.ProductDisplay
	require.NoError(t, json.Unmarshal(body, &d))
	assert.Equal(t, "T-Shirt", d.Type)
	assert.Equal(t, "$19.99", d.Price)
	assert.Equal(t, "In Stock", d.StockStatus)
	assert.True(t, strings.HasPrefix(d.Image, "data:image/jpeg;base64,"))
}

func TestGetProductDisplay_MissingImageIs500(t *testing.T) {
	ts := setup(t, "key")

	resp, body := ts.get(t, "/products/3/display")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "Image not found", e.Detail)
	assert.Equal(t, "INTERNAL_ERROR", e.Code)

	resp, _ = ts.get(t, "/products/display")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, _ = ts.get(t, "/products/404/display")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetadata(t *testing.T) {
	ts := setup(t, "key")

	resp, body := ts.get(t, "/metadata")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var md model.CatalogMetadata
	require.NoError(t, json.Unmarshal(body, &md))
	assert.Equal(t, 3, md.TotalProducts)

	resp, body = ts.get(t, "/users/metadata")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var um model.UserMetadata
	require.NoError(t, json.Unmarshal(body, &um))
	assert.Equal(t, 1, um.TotalUsers)
}

func TestUsers(t *testing.T) {
	ts := setup(t, "key")

	resp, body := ts.get(t, "/users")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []model.User
	require.NoError(t, json.Unmarshal(body, &users))
	assert.Len(t, users, 1)

	resp, body = ts.get(t, "/users/all_ids")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `["user_1"]`, string(body))
}

func TestGetUser_EitherIDForm(t *testing.T) {
	ts := setup(t, "key")

	for _, id := range []string{"user_1", "1"} {
		resp, body := ts.get(t, "/users/"+id)
		require.Equal(t, http.StatusOK, resp.StatusCode, id)
		var u model.User
		require.NoError(t, json.Unmarshal(body, &u))
		assert.Equal(t, "user_1", u.ID)
	}

	resp, body := ts.get(t, "/users/user_9")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", decodeError(t, body).Detail)
}

func TestUserSubResources(t *testing.T) {
	ts := setup(t, "key")

	resp, body := ts.get(t, "/users/1/purchases")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"2"}, productIDs(t, body))

	resp, body = ts.get(t, "/users/user_1/cart")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cart model.Cart
	require.NoError(t, json.Unmarshal(body, &cart))
	assert.Equal(t, 2, cart.TotalItems)

	resp, body = ts.get(t, "/users/user_1/style_preferences")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `["streetwear"]`, string(body))

	resp, body = ts.get(t, "/users/1/display")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var d model.UserDisplay
	require.NoError(t, json.Unmarshal(body, &d))
	assert.Equal(t, "Marcus W.", d.Name)

	for _, path := range []string{"/users/9/purchases", "/users/9/cart", "/users/9/style_preferences", "/users/9/display"} {
		resp, _ = ts.get(t, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func tryOnBody(t *testing.T, overrides map[string]string) []byte {
	t.Helper()
	img := base64.StdEncoding.EncodeToString(encodePNG(t))
	body := map[string]string{
		"user_image_base64":      img,
		"user_image_mimetype":    "image/png",
		"product_image_base64":   img,
		"product_image_mimetype": "image/png",
	}
	for k, v := range overrides {
		body[k] = v
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return data
}

func TestTryOn_Success(t *testing.T) {
	ts := setup(t, "key")
	body := tryOnBody(t, nil)

	resp, out := ts.post(t, "/api/v1/tryon/generate", body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(out))

	var got handler.TryOnResponse
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "image/png", got.MimeType)
	assert.True(t, strings.HasPrefix(got.GeneratedImageBase64, "data:image/png;base64,"))
	assert.Equal(t, "A man wearing a black graphic t-shirt in a bright studio.", got.Prompt)
	assert.False(t, got.Synthesized)
	assert.Equal(t, 1, ts.generator.calls)
}

func TestTryOn_MissingKey(t *testing.T) {
	ts := setup(t, "")

	resp, out := ts.post(t, "/api/v1/tryon/generate", tryOnBody(t, nil))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	e := decodeError(t, out)
	assert.Equal(t, "Gemini API key not configured on server", e.Detail)
	assert.Equal(t, "MISCONFIGURED", e.Code)
	assert.Zero(t, ts.generator.calls)
}

func TestTryOn_MissingFields(t *testing.T) {
	ts := setup(t, "key")

	resp, out := ts.post(t, "/api/v1/tryon/generate", []byte(`{"user_image_base64":"abc"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	e := decodeError(t, out)
	assert.Equal(t, "VALIDATION_ERROR", e.Code)
	assert.Equal(t, "is required", e.Fields["user_image_mimetype"])
	assert.Equal(t, "is required", e.Fields["product_image_base64"])
	assert.Equal(t, "is required", e.Fields["product_image_mimetype"])
	assert.NotContains(t, e.Fields, "user_image_base64")

	resp, _ = ts.post(t, "/api/v1/tryon/generate", tryOnBody(t, map[string]string{"product_image_mimetype": ""}))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Zero(t, ts.generator.calls)
}

func TestTryOn_BadInput(t *testing.T) {
	ts := setup(t, "key")

	resp, out := ts.post(t, "/api/v1/tryon/generate", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ARGUMENT", decodeError(t, out).Code)

	resp, out = ts.post(t, "/api/v1/tryon/generate", tryOnBody(t, map[string]string{"user_image_base64": "***"}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, out).Detail, "user_image_base64")

	big := tryOnBody(t, map[string]string{"user_image_base64": strings.Repeat("A", 2<<20)})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tryon/generate", bytes.NewReader(big))
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w.Body.Bytes()).Detail, "exceeds")
}

func TestTryOn_UpstreamFailure(t *testing.T) {
	ts := setup(t, "key")
	ts.generator.err = errors.New("Gemini processing failed")

	resp, out := ts.post(t, "/api/v1/tryon/generate", tryOnBody(t, nil))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	e := decodeError(t, out)
	assert.Contains(t, e.Detail, "Gemini processing failed")
	assert.Equal(t, "UPSTREAM_FAILURE", e.Code)
}

func TestTryOn_ClientCancelledIsNotLoggedAsError(t *testing.T) {
	ts := setup(t, "key")
	ts.generator.err = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tryon/generate", bytes.NewReader(tryOnBody(t, nil))).WithContext(ctx)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	e := decodeError(t, w.Body.Bytes())
	assert.True(t, strings.HasPrefix(e.Detail, "Request cancelled"), e.Detail)
	assert.NotContains(t, ts.logs.String(), `"level":"ERROR"`)
	assert.Contains(t, ts.logs.String(), "request cancelled by client")
}

func TestTryOn_UpstreamFailureIsLoggedAsError(t *testing.T) {
	ts := setup(t, "key")
	ts.generator.err = errors.New("Gemini processing failed")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tryon/generate", bytes.NewReader(tryOnBody(t, nil)))
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, ts.logs.String(), `"level":"ERROR"`)
	assert.Contains(t, ts.logs.String(), `"msg":"request failed"`)
}

func TestCorrelationID(t *testing.T) {
	ts := setup(t, "key")

	resp, _ := ts.get(t, "/health")
	assert.NotEmpty(t, resp.Header.Get(handler.CorrelationIDHeader))

	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(handler.CorrelationIDHeader, "abc-123")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(handler.CorrelationIDHeader))
}

func TestCORS(t *testing.T) {
	ts := setup(t, "key")

	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+"/products", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setup(t, "key")
	ts.get(t, "/products")

	resp, body := ts.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/products`)
}
