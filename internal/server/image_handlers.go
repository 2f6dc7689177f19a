package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rxscan/rxscan/internal/extract"
	"github.com/rxscan/rxscan/internal/ocr"
	"github.com/rxscan/rxscan/internal/preprocess"
)

// uploadSlackBytes leaves room for multipart framing above the file ceiling
// so oversized files reach the per-file check and get a 413 instead of a
// parse failure.
const uploadSlackBytes = 64 << 10

// supportedUploadTypes is the set of accepted declared content types for
// uploaded image parts.
var supportedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// processImageHandler processes a single packaging image and returns the
// extracted product record. Matching extractions are persisted.
func (s *Server) processImageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxBytes := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+uploadSlackBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	result, status, errMsg := s.scanUpload(r, file, header)
	if errMsg != "" {
		scanRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeErrorResponse(w, errMsg, status)
		return
	}

	scanRequestsTotal.WithLabelValues("image", "success").Inc()
	s.writeJSON(w, http.StatusOK, ScanResponse{Success: true, Result: result})
}

// processBulkHandler processes several images in one request. Failures are
// reported per file; the request only fails as a whole when no file
// succeeded.
func (s *Server) processBulkHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// A bulk body carries several files; the per-file ceiling is enforced in
	// scanUpload, the request cap only bounds the whole envelope.
	maxBytes := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, 10*maxBytes+uploadSlackBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["images"]) == 0 {
		s.writeErrorResponse(w, "No image files provided", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["images"]
	response := BulkResponse{Results: make([]BulkItemResult, 0, len(headers))}

	for _, header := range headers {
		item := BulkItemResult{Filename: header.Filename}

		file, err := header.Open()
		if err != nil {
			item.Error = "Failed to open file"
		} else {
			result, _, errMsg := s.scanUpload(r, file, header)
			_ = file.Close()
			if errMsg != "" {
				item.Error = errMsg
			} else {
				item.Success = true
				item.Result = result
			}
		}

		if item.Success {
			response.Processed++
		} else {
			response.Failed++
		}
		response.Results = append(response.Results, item)
	}

	if response.Processed == 0 {
		scanRequestsTotal.WithLabelValues("bulk", "error").Inc()
		s.writeJSON(w, http.StatusBadRequest, response)
		return
	}

	scanRequestsTotal.WithLabelValues("bulk", "success").Inc()
	s.writeJSON(w, http.StatusOK, response)
}

// scanUpload validates the declared content type and size of one uploaded
// file, then runs it through cache lookup, the pipeline and persistence. It
// returns the result, or an HTTP status and message on failure.
func (s *Server) scanUpload(r *http.Request, file multipart.File, header *multipart.FileHeader) (*ScanResult, int, string) {
	contentType := header.Header.Get("Content-Type")
	if !supportedUploadTypes[contentType] {
		return nil, http.StatusBadRequest, fmt.Sprintf("Unsupported content type: %s", contentType)
	}
	if header.Size > s.maxUploadMB*1024*1024 {
		return nil, http.StatusRequestEntityTooLarge, "File too large"
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusInternalServerError, "Failed to read image data"
	}
	uploadSizeBytes.Observe(float64(len(data)))

	if cached, ok := s.cache.get(data); ok {
		cacheHitsTotal.Inc()
		res := *cached
		res.Cached = true
		return &res, 0, ""
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, http.StatusBadRequest, "Invalid image format"
	}

	start := time.Now()
	procResult, err := s.pipeline.Process(r.Context(), img)
	if err != nil {
		return nil, scanErrorStatus(err), fmt.Sprintf("Processing failed: %v", err)
	}
	scanProcessingDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	fieldsExtracted.Observe(float64(countFields(procResult.Fields)))

	result := &ScanResult{Fields: procResult.Fields, Text: procResult.Text}

	if s.store != nil && !procResult.Fields.IsEmpty() {
		product, err := s.store.SaveProduct(r.Context(), procResult.Fields)
		if err != nil {
			s.logger.Error("failed to persist product", "filename", header.Filename, "error", err)
		} else {
			result.ProductID = product.ID
		}
	}

	s.cache.put(data, result)
	return result, 0, ""
}

// scanErrorStatus maps pipeline failures to HTTP status codes. Bad input is
// the caller's fault; engine failures are ours.
func scanErrorStatus(err error) int {
	var invalid *preprocess.InvalidImageError
	if errors.As(err, &invalid) {
		return http.StatusBadRequest
	}
	var engErr *ocr.EngineError
	if errors.As(err, &engErr) {
		return http.StatusInternalServerError
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func countFields(fields *extract.ProductFields) int {
	if fields == nil {
		return 0
	}
	n := 0
	for _, present := range []bool{
		fields.CertificateNumber != nil,
		fields.BrandName != nil,
		fields.GenericName != nil,
		fields.DosageForm != nil,
		fields.ManufacturerCountry != nil,
		fields.Strength != nil,
		fields.Description != nil,
		fields.Precaution != nil,
		fields.PackSize != nil,
		fields.ExpiryDate != nil,
		fields.BatchNumber != nil,
	} {
		if present {
			n++
		}
	}
	return n
}
