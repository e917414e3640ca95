package hlsfetch

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

func TestFetchAllDecodesBrotliResponses(t *testing.T) {
	want := []byte("segment payload bytes")

	var compressed bytes.Buffer
	bw := brotli.NewWriter(&compressed)
	if _, err := bw.Write(want); err != nil {
		t.Fatalf("compressing fixture: %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("closing brotli writer: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(compressed.Bytes())
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Concurrency: 1, MaxRetries: 1, RetryBaseDelay: time.Millisecond}, nil)

	results := f.FetchAll(t.Context(), []Segment{{URI: srv.URL, Sequence: 0}})
	fr := <-results
	if fr.Err != nil {
		t.Fatalf("FetchAll: %v", fr.Err)
	}
	if !bytes.Equal(fr.Data, want) {
		t.Fatalf("expected decoded payload %q, got %q", want, fr.Data)
	}
}
