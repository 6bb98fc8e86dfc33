package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func TestFetchPage_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{})
	_, err := client.FetchPage(context.Background(), server.URL+"/pagina-sumida")
	if !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("FetchPage() error = %v, want ErrPageNotFound", err)
	}
}

func TestFetchPage_ReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body>oi</body></html>")
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{})
	html, err := client.FetchPage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchPage() unexpected error: %v", err)
	}
	if html != "<html><body>oi</body></html>" {
		t.Fatalf("html = %q, want page body", html)
	}
}

func TestFetchAsset_RejectsEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{})
	_, _, err := client.FetchAsset(context.Background(), server.URL+"/vazio.pdf")
	if err == nil {
		t.Fatal("FetchAsset() expected error for empty body, got nil")
	}
}

func TestFetchAsset_ReturnsContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		io.WriteString(w, "%PDF-1.4 data")
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{})
	data, contentType, err := client.FetchAsset(context.Background(), server.URL+"/doc.pdf")
	if err != nil {
		t.Fatalf("FetchAsset() unexpected error: %v", err)
	}
	if contentType != "application/pdf" {
		t.Fatalf("contentType = %q, want application/pdf", contentType)
	}
	if len(data) == 0 {
		t.Fatal("FetchAsset() returned empty data")
	}
}

func TestAssetSize_ReadsContentLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Fatalf("method = %s, want HEAD", r.Method)
		}
		w.Header().Set("Content-Length", strconv.Itoa(4096))
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{})
	size, err := client.AssetSize(context.Background(), server.URL+"/img.png")
	if err != nil {
		t.Fatalf("AssetSize() unexpected error: %v", err)
	}
	if size != 4096 {
		t.Fatalf("size = %d, want 4096", size)
	}
}
