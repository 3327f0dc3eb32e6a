// Package httpapi exposes the submission intake and history endpoints
// consumed by the messaging bot.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"listing-backend/internal/model"
	"listing-backend/internal/pipeline"
	"listing-backend/internal/store"
)

// Runner runs one submission through the pipeline.
type Runner interface {
	Run(ctx context.Context, req *model.CreateSubmissionRequest) (*pipeline.Result, error)
}

// HistoryReader serves the stored submission and vendor lists.
type HistoryReader interface {
	ListSubmissions(ctx context.Context) ([]store.SubmissionRecord, error)
	ListVendors(ctx context.Context) ([]store.Vendor, error)
}

// Server holds the route handlers' dependencies.
type Server struct {
	runner   Runner
	history  HistoryReader
	validate *validator.Validate
	log      *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(runner Runner, history HistoryReader, log *zap.Logger) *Server {
	return &Server{
		runner:   runner,
		history:  history,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes wires the HTTP routes.
// gorilla/mux: method-based routing and URL pattern matching.
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/products", s.handleAddProduct).Methods(http.MethodPost)
	r.HandleFunc("/api/products", s.handleListProducts).Methods(http.MethodGet)
	r.HandleFunc("/api/vendors", s.handleListVendors).Methods(http.MethodGet)
}

// ListingSummary is the normalized listing echoed back so the bot can
// format its confirmation message.
type ListingSummary struct {
	Title          string `json:"title"`
	Category       string `json:"category"`
	Collections    string `json:"collections"`
	Price          int    `json:"price"`
	CompareAtPrice int    `json:"compare_at_price"`
	Size           string `json:"size"`
	Tags           string `json:"tags"`
	SKU            string `json:"sku"`
	Vendor         string `json:"vendor"`
}

// createResponse is the add-product response body. Partial taxonomy or
// metafield failures still report status "success" with embedded counts.
type createResponse struct {
	Status              string          `json:"status"`
	Message             string          `json:"message"`
	ProductID           string          `json:"product_id,omitempty"`
	ShopifyProductID    int64           `json:"shopify_product_id,omitempty"`
	Price               int             `json:"price,omitempty"`
	CostPrice           int             `json:"cost_price,omitempty"`
	ImagesUploaded      int             `json:"images_uploaded"`
	ImagesFailed        int             `json:"images_failed"`
	CollectionsLinked   int             `json:"collections_linked"`
	MetafieldsAdded     int             `json:"metafields_added"`
	MetafieldsAttempted int             `json:"metafields_attempted"`
	Listing             *ListingSummary `json:"shopify_data,omitempty"`
}

type listResponse struct {
	Status   string                   `json:"status"`
	Products []store.SubmissionRecord `json:"products"`
}

type vendorsResponse struct {
	Status  string         `json:"status"`
	Vendors []store.Vendor `json:"vendors"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAddProduct accepts one submission and runs it through the pipeline
// synchronously. Validation failures return 400 before any external call;
// fatal pipeline failures return 500 with the upstream error text.
func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, createResponse{Status: "error", Message: "invalid JSON body"})
		return
	}

	// go-playground/validator: struct tags enforce required fields and the
	// minimum image count before the pipeline runs.
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, createResponse{Status: "error", Message: "missing required fields: " + err.Error()})
		return
	}

	res, err := s.runner.Run(r.Context(), &req)
	if err != nil {
		// Runner implementations may return a nil result with the error.
		if res == nil {
			res = &pipeline.Result{State: pipeline.StateFailed}
		}
		var vErr *pipeline.ValidationError
		status := http.StatusInternalServerError
		if errors.As(err, &vErr) {
			status = http.StatusBadRequest
		}
		s.log.Error("submission failed",
			zap.String("sender", req.Sender),
			zap.String("state", string(res.State)),
			zap.Error(err),
		)
		writeJSON(w, status, createResponse{
			Status:         "error",
			Message:        err.Error(),
			ProductID:      localID(res),
			ImagesUploaded: res.ImagesUploaded,
			ImagesFailed:   res.ImagesFailed,
		})
		return
	}

	writeJSON(w, http.StatusOK, createResponse{
		Status:              "success",
		Message:             "Product sent to Shopify",
		ProductID:           localID(res),
		ShopifyProductID:    res.Product.ID,
		Price:               res.Product.Price,
		CostPrice:           res.Product.CostPrice,
		ImagesUploaded:      res.ImagesUploaded,
		ImagesFailed:        res.ImagesFailed,
		CollectionsLinked:   res.CollectionsLinked,
		MetafieldsAdded:     res.MetafieldsAdded,
		MetafieldsAttempted: res.MetafieldsAttempted,
		Listing: &ListingSummary{
			Title:          res.Fields.Title,
			Category:       res.Fields.Category,
			Collections:    strings.Join(res.Fields.Collections, ", "),
			Price:          res.Product.Price,
			CompareAtPrice: res.Product.CompareAtPrice,
			Size:           res.Fields.Size,
			Tags:           strings.Join(res.Fields.Tags, ", "),
			SKU:            res.Product.SKU,
			Vendor:         res.Fields.Vendor,
		},
	})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	recs, err := s.history.ListSubmissions(r.Context())
	if err != nil {
		s.log.Error("listing submissions failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, listResponse{Status: "error"})
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Status: "success", Products: recs})
}

func (s *Server) handleListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := s.history.ListVendors(r.Context())
	if err != nil {
		s.log.Error("listing vendors failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, vendorsResponse{Status: "error"})
		return
	}
	writeJSON(w, http.StatusOK, vendorsResponse{Status: "success", Vendors: vendors})
}

func localID(res *pipeline.Result) string {
	if res == nil || res.LocalID == uuid.Nil {
		return ""
	}
	return res.LocalID.String()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
