package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"listing-backend/internal/model"
	"listing-backend/internal/pipeline"
	"listing-backend/internal/store"
)

type fakeRunner struct {
	res   *pipeline.Result
	err   error
	calls int
}

func (f *fakeRunner) Run(ctx context.Context, req *model.CreateSubmissionRequest) (*pipeline.Result, error) {
	f.calls++
	return f.res, f.err
}

type fakeHistory struct {
	recs    []store.SubmissionRecord
	vendors []store.Vendor
	err     error
}

func (f *fakeHistory) ListSubmissions(ctx context.Context) ([]store.SubmissionRecord, error) {
	return f.recs, f.err
}

func (f *fakeHistory) ListVendors(ctx context.Context) ([]store.Vendor, error) {
	return f.vendors, f.err
}

func newRouter(runner Runner, history HistoryReader) *mux.Router {
	r := mux.NewRouter()
	NewServer(runner, history, zap.NewNop()).RegisterRoutes(r)
	return r
}

func completedResult() *pipeline.Result {
	return &pipeline.Result{
		State:   pipeline.StateCompleted,
		LocalID: uuid.New(),
		Product: &model.PublishedProduct{
			ID:             987654321,
			Title:          "Banarasi Saree",
			Price:          8000,
			CostPrice:      5000,
			CompareAtPrice: 10000,
			SKU:            "A1B2C",
		},
		Fields: &model.NormalizedFields{
			Title:       "Banarasi Saree",
			Category:    "Fashion",
			Collections: []string{"new", "trending"},
			Size:        "Free Size",
			Tags:        []string{"saree", "silk"},
			Vendor:      "RK TEXTILES",
		},
		ImagesUploaded:      2,
		CollectionsLinked:   2,
		MetafieldsAdded:     8,
		MetafieldsAttempted: 8,
	}
}

func postProduct(t *testing.T, r *mux.Router, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validBody() map[string]any {
	return map[string]any{
		"sender":      "919999888777@c.us",
		"description": "FABRIC - Pure Silk, PRICE - 5000/8000",
		"images": []map[string]string{
			{"filename": "img_1.jpg", "base64": "Zm9v"},
		},
	}
}

func TestHealth(t *testing.T) {
	r := newRouter(&fakeRunner{}, &fakeHistory{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAddProduct_Success(t *testing.T) {
	runner := &fakeRunner{res: completedResult()}
	r := newRouter(runner, &fakeHistory{})

	w := postProduct(t, r, validBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "Product sent to Shopify", resp["message"])
	assert.Equal(t, float64(987654321), resp["shopify_product_id"])
	assert.Equal(t, float64(8000), resp["price"])
	assert.Equal(t, float64(5000), resp["cost_price"])
	assert.Equal(t, float64(2), resp["collections_linked"])
	assert.Equal(t, float64(8), resp["metafields_added"])

	listing, ok := resp["shopify_data"].(map[string]any)
	require.True(t, ok, "response must echo the normalized listing")
	assert.Equal(t, "Banarasi Saree", listing["title"])
	assert.Equal(t, "new, trending", listing["collections"])
	assert.Equal(t, "Free Size", listing["size"])
	assert.Equal(t, "A1B2C", listing["sku"])
	assert.Equal(t, "RK TEXTILES", listing["vendor"])
}

func TestAddProduct_InvalidJSON(t *testing.T) {
	runner := &fakeRunner{}
	r := newRouter(runner, &fakeHistory{})

	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, runner.calls)
}

func TestAddProduct_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{name: "no images", mutate: func(b map[string]any) { delete(b, "images") }},
		{name: "empty images", mutate: func(b map[string]any) { b["images"] = []map[string]string{} }},
		{name: "no sender", mutate: func(b map[string]any) { delete(b, "sender") }},
		{name: "no description", mutate: func(b map[string]any) { delete(b, "description") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{res: completedResult()}
			r := newRouter(runner, &fakeHistory{})

			body := validBody()
			tt.mutate(body)

			w := postProduct(t, r, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			// The tag validator rejects the body before the pipeline runs.
			assert.Zero(t, runner.calls)
		})
	}
}

func TestAddProduct_ValidationErrorIs400(t *testing.T) {
	runner := &fakeRunner{
		res: &pipeline.Result{State: pipeline.StateFailed},
		err: &pipeline.ValidationError{Reason: "description is required"},
	}
	r := newRouter(runner, &fakeHistory{})

	w := postProduct(t, r, validBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp["status"])
}

func TestAddProduct_PipelineFailureIs500(t *testing.T) {
	runner := &fakeRunner{
		res: &pipeline.Result{State: pipeline.StateFailed, ImagesFailed: 2},
		err: errors.New("all 2 image uploads failed: host down"),
	}
	r := newRouter(runner, &fakeHistory{})

	w := postProduct(t, r, validBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, float64(2), resp["images_failed"])
}

func TestAddProduct_NilResultFromRunner(t *testing.T) {
	runner := &fakeRunner{res: nil, err: errors.New("history store unavailable")}
	r := newRouter(runner, &fakeHistory{})

	w := postProduct(t, r, validBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp["status"])
	assert.NotContains(t, resp, "product_id")
}

func TestListProducts(t *testing.T) {
	history := &fakeHistory{recs: []store.SubmissionRecord{
		{
			ID:          uuid.New(),
			Sender:      "919999888777@c.us",
			Description: "newest listing",
			Vendor:      "RK TEXTILES",
			Images:      []string{"img_1.jpg"},
			CreatedAt:   time.Now().UTC(),
		},
	}}
	r := newRouter(&fakeRunner{}, history)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "newest listing", resp.Products[0].Description)
}

func TestListProducts_StoreFailure(t *testing.T) {
	history := &fakeHistory{err: errors.New("database locked")}
	r := newRouter(&fakeRunner{}, history)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListVendors(t *testing.T) {
	history := &fakeHistory{vendors: []store.Vendor{
		{Name: "RK TEXTILES", CreatedAt: time.Now().UTC()},
		{Name: "DEFAULT", CreatedAt: time.Now().UTC()},
	}}
	r := newRouter(&fakeRunner{}, history)

	req := httptest.NewRequest(http.MethodGet, "/api/vendors", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp vendorsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Len(t, resp.Vendors, 2)
}
