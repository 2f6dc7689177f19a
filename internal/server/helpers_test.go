package server

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rxscan/rxscan/internal/pipeline"
	"github.com/rxscan/rxscan/internal/store"
)

// fakePipeline plays back a scripted result or error.
type fakePipeline struct {
	result *pipeline.Result
	err    error
	calls  int
	closed bool
}

func (f *fakePipeline) Process(ctx context.Context, img image.Image) (*pipeline.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakePipeline) Close() error {
	f.closed = true
	return nil
}

// newTestServer wires a server around the fake pipeline and a fresh
// in-memory store.
func newTestServer(t *testing.T, pl pipelineInterface) *Server {
	t.Helper()
	st, err := store.Open(context.Background(), ":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return &Server{
		pipeline:    pl,
		store:       st,
		cache:       newResultCache(time.Hour),
		corsOrigin:  "*",
		maxUploadMB: 10,
		logger:      slog.Default(),
	}
}

// encodePNG renders a small solid image as PNG bytes.
func encodePNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartUpload builds a multipart request body with the given files under
// the given field name, declaring each part's content type from its
// extension.
func multipartUpload(t *testing.T, field string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, data := range files {
		writeFilePart(t, writer, field, name, partContentType(name), data)
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

// multipartUploadAs builds a single-file multipart body with an explicitly
// declared part content type.
func multipartUploadAs(t *testing.T, field, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writeFilePart(t, writer, field, name, contentType, data)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func writeFilePart(t *testing.T, writer *multipart.Writer, field, name, contentType string, data []byte) {
	t.Helper()
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
}

func partContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// doRequest runs a request through the full route table.
func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}
