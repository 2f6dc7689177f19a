// Package server exposes the scan pipeline and the product store over HTTP
// and WebSocket.
package server

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rxscan/rxscan/internal/extract"
	"github.com/rxscan/rxscan/internal/pipeline"
	"github.com/rxscan/rxscan/internal/store"
)

// pipelineInterface defines the methods the server needs from a pipeline.
type pipelineInterface interface {
	Process(ctx context.Context, img image.Image) (*pipeline.Result, error)
	Close() error
}

// productStore defines the persistence methods the server uses.
type productStore interface {
	SaveProduct(ctx context.Context, fields *extract.ProductFields) (*store.Product, error)
	GetProduct(ctx context.Context, id string) (*store.Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]*store.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    pipelineInterface
	store       productStore
	cache       *resultCache
	rateLimiter *RateLimiter
	corsOrigin  string
	maxUploadMB int64
	logger      *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Host              string
	Port              int
	CORSOrigin        string
	MaxUploadMB       int64
	RequestsPerMinute int
	MaxUploadPerDayMB int64
	CacheTTL          time.Duration
	DatabasePath      string
	PipelineConfig    pipeline.Config
}

// DefaultConfig returns server defaults.
func DefaultConfig() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              8080,
		CORSOrigin:        "*",
		MaxUploadMB:       10,
		RequestsPerMinute: 60,
		MaxUploadPerDayMB: 0,
		CacheTTL:          time.Hour,
		DatabasePath:      "rxscan.db",
		PipelineConfig:    pipeline.DefaultConfig(),
	}
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ScanResult carries the outcome of one processed image.
type ScanResult struct {
	ProductID string                 `json:"product_id,omitempty"`
	Fields    *extract.ProductFields `json:"fields,omitempty"`
	Text      string                 `json:"text,omitempty"`
	Cached    bool                   `json:"cached"`
}

// ScanResponse is the envelope for single-image responses.
type ScanResponse struct {
	Success bool        `json:"success"`
	Result  *ScanResult `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// BulkItemResult is the per-file outcome in a bulk response.
type BulkItemResult struct {
	Filename string      `json:"filename"`
	Success  bool        `json:"success"`
	Result   *ScanResult `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// BulkResponse is the envelope for bulk responses.
type BulkResponse struct {
	Results   []BulkItemResult `json:"results"`
	Processed int              `json:"processed"`
	Failed    int              `json:"failed"`
}

// ProductListResponse wraps a product listing.
type ProductListResponse struct {
	Products []*store.Product `json:"products"`
	Count    int              `json:"count"`
}

// NewServer creates a new scan server. The pipeline and the database are
// opened here; Close releases both.
func NewServer(ctx context.Context, config Config) (*Server, error) {
	cfg := config.PipelineConfig

	pl, err := pipeline.NewBuilder().
		WithModelsDir(cfg.ModelsDir).
		WithDetectionModelPath(cfg.Scene.DetectionModelPath).
		WithRecognitionModelPath(cfg.Scene.RecognitionModelPath).
		WithDictionaryPath(cfg.Scene.DictPath).
		WithMaxDimension(cfg.MaxDimension).
		WithConfidenceFloor(cfg.ConfidenceFloor).
		WithThreads(cfg.Scene.NumThreads).
		WithTesseractLanguage(cfg.Tesseract.Language).
		WithTessdataPrefix(cfg.Tesseract.TessdataPrefix).
		WithVocabularies(cfg.Extract).
		Build()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, config.DatabasePath, slog.Default())
	if err != nil {
		_ = pl.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	var limiter *RateLimiter
	if config.RequestsPerMinute > 0 || config.MaxUploadPerDayMB > 0 {
		limiter = NewRateLimiter(config.RequestsPerMinute, config.MaxUploadPerDayMB*1024*1024)
	}

	return &Server{
		pipeline:    pl,
		store:       st,
		cache:       newResultCache(config.CacheTTL),
		rateLimiter: limiter,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		logger:      slog.Default(),
	}, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	var first error
	if s.pipeline != nil {
		first = s.pipeline.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/process-image", s.corsMiddleware(s.rateLimitMiddleware(s.processImageHandler)))
	mux.HandleFunc("/api/v1/process-bulk", s.corsMiddleware(s.rateLimitMiddleware(s.processBulkHandler)))
	mux.HandleFunc("/api/v1/products", s.corsMiddleware(s.productsHandler))
	mux.HandleFunc("/api/v1/products/", s.corsMiddleware(s.productHandler))
	mux.HandleFunc("/api/v1/ws", s.scanWebSocketHandler)
}
