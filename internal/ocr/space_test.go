package ocr

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/sheet-sorter/internal/common"
)

func writePDF(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%fake\n"), 0o644))
	return path
}

func TestSpaceClientExtract(t *testing.T) {
	var got map[string]string
	var uploaded string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		got = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			got[k] = v[0]
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		uploaded = hdr.Filename + ":" + string(b[:8])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ParsedResults":[{"ParsedText":"Feodora\r\nOuverture\r\n1st Bb Clarinet"}],"IsErroredOnProcessing":false}`)
	}))
	defer srv.Close()

	c := NewSpaceClient(SpaceConfig{Endpoint: srv.URL, APIKey: "k-123"}, srv.Client(), nil)
	res, err := c.Extract(context.Background(), writePDF(t, "scan001.pdf"))
	require.NoError(t, err)

	assert.Equal(t, "Feodora\nOuverture\n1st Bb Clarinet", res.Text)
	assert.Equal(t, "ocr.space", res.Method)
	assert.Equal(t, 1, res.Pages)
	assert.NotEmpty(t, res.RequestID)

	assert.Equal(t, "k-123", got["apikey"])
	assert.Equal(t, "eng", got["language"])
	assert.Equal(t, "true", got["detectOrientation"])
	assert.Equal(t, "true", got["scale"])
	assert.Equal(t, "2", got["OCREngine"])
	assert.Equal(t, "PDF", got["filetype"])
	assert.Equal(t, "scan001.pdf:%PDF-1.4", uploaded)

	ctx := common.WithRequestID(context.Background(), "outcome-42")
	res, err = c.Extract(ctx, writePDF(t, "scan002.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "outcome-42", res.RequestID)
}

func TestSpaceClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `oops`, ErrHTTPStatus},
		{"service error", http.StatusOK, `{"IsErroredOnProcessing":true,"ErrorMessage":["quota exceeded"]}`, ErrOCRFailed},
		{"non json", http.StatusOK, `Service unavailable`, ErrNonJSONResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewSpaceClient(SpaceConfig{Endpoint: srv.URL, APIKey: "k"}, srv.Client(), nil)
			res, err := c.Extract(context.Background(), writePDF(t, "a.pdf"))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, res.Text)
		})
	}
}

func TestSpaceClientMissingFile(t *testing.T) {
	c := NewSpaceClient(SpaceConfig{Endpoint: "http://127.0.0.1:1", APIKey: "k"}, nil, nil)
	_, err := c.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
