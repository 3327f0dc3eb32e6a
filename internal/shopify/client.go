// Package shopify is the storefront platform client: product creation,
// custom collections, product-collection links and product metafields over
// the Admin REST API.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"listing-backend/internal/model"
)

// Fixed listing policy applied to every published variant.
const (
	inventoryQuantity    = 5
	inventoryPolicy      = "deny"
	variantWeightKg      = 2.0
	countryCodeOfOrigin  = "IN"
	harmonizedSystemCode = "620443"
)

// maxResponseSize limits response body reads to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024

// PublishError reports a rejected create request. Status and Body surface
// the platform's response verbatim.
type PublishError struct {
	Status int
	Body   string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("shopify: product create rejected with status %d: %s", e.Status, e.Body)
}

// APIError reports a non-2xx response from any other endpoint.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify: %s returned %d: %s", e.Endpoint, e.Status, e.Body)
}

// Client talks to one store's Admin API.
type Client struct {
	cfg        *Config
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a client with the given configuration.
func NewClient(cfg *Config, log *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}, nil
}

// CreateProduct builds and submits the product creation payload from
// normalized fields and the ordered media references. On success it returns
// the platform-assigned identifier plus the price values the platform
// actually stored.
func (c *Client) CreateProduct(ctx context.Context, f *model.NormalizedFields, media []model.MediaReference) (*model.PublishedProduct, error) {
	images := make([]productImage, 0, len(media))
	for _, ref := range media {
		images = append(images, productImage{
			Src:      ref.URL,
			Alt:      fmt.Sprintf("%s - View %d", f.Title, ref.Position),
			Position: ref.Position,
		})
	}

	payload := productCreateRequest{Product: productPayload{
		Title:          f.Title,
		BodyHTML:       f.BodyHTML,
		Vendor:         f.Vendor,
		ProductType:    f.ProductType,
		Handle:         Slugify(f.Title),
		Tags:           strings.Join(f.Tags, ", "),
		PublishedScope: "global",
		Status:         "active",
		Options:        []productOption{{Name: "Size", Values: []string{f.Size}}},
		Variants: []productVariant{{
			Price:                strconv.Itoa(f.Price),
			CompareAtPrice:       strconv.Itoa(f.CompareAtPrice),
			SKU:                  f.SKU,
			Option1:              f.Size,
			Taxable:              false,
			InventoryQuantity:    inventoryQuantity,
			InventoryPolicy:      inventoryPolicy,
			InventoryManagement:  "shopify",
			Weight:               variantWeightKg,
			WeightUnit:           "kg",
			RequiresShipping:     true,
			CountryCodeOfOrigin:  countryCodeOfOrigin,
			HarmonizedSystemCode: harmonizedSystemCode,
			Cost:                 strconv.Itoa(f.CostPrice),
		}},
		Images: images,
	}}

	body, status, err := c.doRequest(ctx, http.MethodPost, "/products.json", payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &PublishError{Status: status, Body: string(body)}
	}

	var resp productCreateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("shopify: parsing product create response: %w", err)
	}
	if resp.Product.ID == 0 {
		return nil, &PublishError{Status: status, Body: string(body)}
	}

	published := &model.PublishedProduct{
		ID:             resp.Product.ID,
		Title:          resp.Product.Title,
		Price:          f.Price,
		CostPrice:      f.CostPrice,
		CompareAtPrice: f.CompareAtPrice,
		SKU:            f.SKU,
	}
	// Prefer the values the platform actually stored; it may coerce them.
	if len(resp.Product.Variants) > 0 {
		v := resp.Product.Variants[0]
		if p := parsePrice(v.Price); p > 0 {
			published.Price = p
		}
		if p := parsePrice(v.CompareAtPrice); p > 0 {
			published.CompareAtPrice = p
		}
		if v.SKU != "" {
			published.SKU = v.SKU
		}
	}

	c.log.Info("product created",
		zap.Int64("product_id", published.ID),
		zap.String("title", published.Title),
		zap.Int("price", published.Price),
	)
	return published, nil
}

// ListCollections retrieves the store's full custom collection list.
func (c *Client) ListCollections(ctx context.Context) ([]model.CollectionRef, error) {
	body, status, err := c.doRequest(ctx, http.MethodGet, "/custom_collections.json?limit=250", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &APIError{Endpoint: "custom_collections", Status: status, Body: string(body)}
	}

	var resp collectionListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("shopify: parsing collection list: %w", err)
	}

	refs := make([]model.CollectionRef, 0, len(resp.CustomCollections))
	for _, col := range resp.CustomCollections {
		refs = append(refs, model.CollectionRef{ID: col.ID, Title: col.Title, Handle: col.Handle})
	}
	return refs, nil
}

// CreateCollection creates a custom collection with a slugified handle and
// default body text.
func (c *Client) CreateCollection(ctx context.Context, title string) (model.CollectionRef, error) {
	payload := collectionCreateRequest{CustomCollection: customCollection{
		Title:    title,
		Handle:   Slugify(title),
		BodyHTML: fmt.Sprintf("<p>%s collection.</p>", title),
	}}

	body, status, err := c.doRequest(ctx, http.MethodPost, "/custom_collections.json", payload)
	if err != nil {
		return model.CollectionRef{}, err
	}
	if status < 200 || status > 299 {
		return model.CollectionRef{}, &APIError{Endpoint: "custom_collections", Status: status, Body: string(body)}
	}

	var resp collectionCreateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.CollectionRef{}, fmt.Errorf("shopify: parsing collection create response: %w", err)
	}
	col := resp.CustomCollection
	return model.CollectionRef{ID: col.ID, Title: col.Title, Handle: col.Handle}, nil
}

// LinkProductToCollection adds the product to a collection via a collect.
func (c *Client) LinkProductToCollection(ctx context.Context, productID, collectionID int64) error {
	payload := collectRequest{Collect: collectPayload{ProductID: productID, CollectionID: collectionID}}

	body, status, err := c.doRequest(ctx, http.MethodPost, "/collects.json", payload)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &APIError{Endpoint: "collects", Status: status, Body: string(body)}
	}
	return nil
}

// AttachMetafield writes one single-line-text metafield on the product
// under the configured namespace.
func (c *Client) AttachMetafield(ctx context.Context, productID int64, key, value string) error {
	payload := metafieldRequest{Metafield: metafieldPayload{
		Namespace: c.cfg.MetafieldNamespace,
		Key:       key,
		Value:     value,
		Type:      "single_line_text_field",
	}}

	path := fmt.Sprintf("/products/%d/metafields.json", productID)
	body, status, err := c.doRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &APIError{Endpoint: "metafields", Status: status, Body: string(body)}
	}
	return nil
}

// doRequest performs one authenticated Admin API call and returns the raw
// body and status. Transport errors are returned as-is; status policy is
// the caller's.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("shopify: marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("shopify: building request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("shopify: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("shopify: reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}

var (
	nonWordPattern    = regexp.MustCompile(`[^\w\s-]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Slugify derives a URL-safe handle from a title: strip non-word
// characters, collapse whitespace to hyphens, lower-case.
func Slugify(title string) string {
	s := nonWordPattern.ReplaceAllString(title, "")
	s = whitespacePattern.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.ToLower(s)
}

func parsePrice(s string) int {
	if s == "" {
		return 0
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// API is the full storefront surface the pipeline components consume.
type API interface {
	CreateProduct(ctx context.Context, f *model.NormalizedFields, media []model.MediaReference) (*model.PublishedProduct, error)
	ListCollections(ctx context.Context) ([]model.CollectionRef, error)
	CreateCollection(ctx context.Context, title string) (model.CollectionRef, error)
	LinkProductToCollection(ctx context.Context, productID, collectionID int64) error
	AttachMetafield(ctx context.Context, productID int64, key, value string) error
}

var _ API = (*Client)(nil)
