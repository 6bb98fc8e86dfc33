package liferay

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		BaseURL:  serverURL,
		Username: "admin@example.com",
		Password: "secret",
		SiteID:   20121,
	})
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	return client
}

func TestNewClient_RequiresCoreConfig(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	if err == nil {
		t.Fatal("NewClient() expected error, got nil")
	}
	_, err = NewClient(ClientConfig{BaseURL: "http://liferay.local", Username: "u", Password: "p"})
	if err == nil {
		t.Fatal("NewClient() without site ID expected error, got nil")
	}
}

func TestListFolders_UsesExpectedEndpointAndAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/o/headless-delivery/v1.0/sites/20121/structured-content-folders" {
			t.Fatalf("path = %s, want site folder collection", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok {
			t.Fatal("request missing basic auth")
		}
		if user != "admin@example.com" || pass != "secret" {
			t.Fatalf("auth = %q/%q, want admin@example.com/secret", user, pass)
		}
		if got := r.URL.Query().Get("pageSize"); got != "100" {
			t.Fatalf("pageSize query = %q, want 100", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"items":[{"id":31,"name":"Educação"}],"page":1,"pageSize":100,"totalCount":1}`)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, server.URL)
	result, err := client.ListFolders(context.Background(), FolderKindJournal, 0, 1, 100)
	if err != nil {
		t.Fatalf("ListFolders() unexpected error: %v", err)
	}
	if len(result.Folders) != 1 {
		t.Fatalf("len(Folders) = %d, want 1", len(result.Folders))
	}
	if result.Folders[0].Name != "Educação" {
		t.Fatalf("folder name = %q, want %q", result.Folders[0].Name, "Educação")
	}
	if result.HasMore() {
		t.Fatal("HasMore() = true, want false")
	}
}

func TestListFolders_DocumentTreeUsesParentPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/o/headless-delivery/v1.0/document-folders/55/document-folders" {
			t.Fatalf("path = %s, want document subfolder collection", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"items":[{"id":56,"name":"Anexos"}],"page":1,"pageSize":100,"totalCount":1}`)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, server.URL)
	result, err := client.ListFolders(context.Background(), FolderKindDocument, 55, 1, 100)
	if err != nil {
		t.Fatalf("ListFolders() unexpected error: %v", err)
	}
	if result.Folders[0].ParentID != 55 {
		t.Fatalf("ParentID = %d, want 55", result.Folders[0].ParentID)
	}
}

func TestSearchStructuredContents_EscapesQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filter := r.URL.Query().Get("filter")
		want := `title eq 'Maria\'s page'`
		if filter != want {
			t.Fatalf("filter = %q, want %q", filter, want)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"items":[],"page":1,"pageSize":5,"totalCount":0}`)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, server.URL)
	if _, err := client.SearchStructuredContents(context.Background(), 0, "Maria's page"); err != nil {
		t.Fatalf("SearchStructuredContents() unexpected error: %v", err)
	}
}

func TestGetStructuredContent_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, server.URL)
	_, err := client.GetStructuredContent(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetStructuredContent() error = %v, want ErrNotFound", err)
	}
}

func TestCreateStructuredContent_BuildsNestedPayload(t *testing.T) {
	var captured string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/o/headless-delivery/v1.0/structured-content-folders/7/structured-contents" {
			t.Fatalf("path = %s, want folder content collection", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		captured = string(raw)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":123,"key":"123456","title":"Creche","friendlyUrlPath":"/creche"}`)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, server.URL)
	record, err := client.CreateStructuredContent(context.Background(), ContentInput{
		StructureID: 41000,
		FolderID:    7,
		Title:       "Creche",
		Fields: []ContentField{{
			Name: "collapse",
			Nested: []ContentField{
				{Name: "collapse_title", Data: "Documentos"},
				{Name: "collapse_collor", Data: "Azul", Value: "blue"},
			},
		}},
	})
	if err != nil {
		t.Fatalf("CreateStructuredContent() unexpected error: %v", err)
	}
	if record.Key != "123456" {
		t.Fatalf("record key = %q, want %q", record.Key, "123456")
	}
	for _, fragment := range []string{
		`"contentStructureId":41000`,
		`"nestedContentFields"`,
		`"collapse_collor"`,
		`"value":"blue"`,
	} {
		if !strings.Contains(captured, fragment) {
			t.Fatalf("request body missing %s: %s", fragment, captured)
		}
	}
}

func TestDoWithRetry_RetriesServiceUnavailable(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":5,"key":"5","title":"ok"}`)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, server.URL)
	if _, err := client.GetStructuredContent(context.Background(), 5); err != nil {
		t.Fatalf("GetStructuredContent() unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestDoWithRetry_DoesNotRetryClientRejection(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"title":"bad filter"}`)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, server.URL)
	_, err := client.SearchStructuredContents(context.Background(), 0, "x")
	if err == nil {
		t.Fatal("SearchStructuredContents() expected error, got nil")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	if !IsClientRejection(err) {
		t.Fatalf("IsClientRejection(%v) = false, want true", err)
	}
	if !strings.Contains(err.Error(), "bad filter") {
		t.Fatalf("error %q missing server message", err)
	}
}

func TestUploadDocument_SendsMultipartAndDoesNotRetryConflict(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm() unexpected error: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile() unexpected error: %v", err)
		}
		defer file.Close()
		if header.Filename != "edital.pdf" {
			t.Fatalf("filename = %q, want edital.pdf", header.Filename)
		}
		metadata := r.FormValue("documentMetadata")
		if !strings.Contains(metadata, `"title":"edital.pdf"`) {
			t.Fatalf("documentMetadata = %q, missing title", metadata)
		}
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"title":"duplicate file"}`)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, server.URL)
	_, err := client.UploadDocument(context.Background(), DocumentUploadInput{
		FolderID:    12,
		Filename:    "edital.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4"),
	})
	if !IsConflict(err) {
		t.Fatalf("UploadDocument() error = %v, want conflict", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (uploads are single shot)", attempts)
	}
}

func TestAssociateArticle_SendsQueryAndChecksStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/o/api-association-migrador/v1.0/journal-content/associate-article" {
			t.Fatalf("path = %s, want association endpoint", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("plid") != "4411" || q.Get("articleId") != "98765" {
			t.Fatalf("query = %v, want plid 4411 and articleId 98765", q)
		}
		if q.Get("portletId") == "" {
			t.Fatal("query missing portletId")
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"SUCCESS"}`)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, server.URL)
	err := client.AssociateArticle(context.Background(), AssociationInput{
		Plid:       4411,
		PortletID:  "com_liferay_journal_content_web_portlet_JournalContentPortlet_INSTANCE_abc",
		ArticleKey: "98765",
	})
	if err != nil {
		t.Fatalf("AssociateArticle() unexpected error: %v", err)
	}
}

func TestAssociateArticle_NonSuccessStatusFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"ERROR"}`)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, server.URL)
	err := client.AssociateArticle(context.Background(), AssociationInput{Plid: 1, PortletID: "p", ArticleKey: "a"})
	if err == nil {
		t.Fatal("AssociateArticle() expected error for non-success status, got nil")
	}
}

func TestGetStructuredContent_LargeBodyIsReadWhole(t *testing.T) {
	bigTitle := strings.Repeat("a", (1<<20)+(1<<19))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":77,"key":"77001","title":"`)
		io.WriteString(w, bigTitle)
		io.WriteString(w, `"}`)
	}))
	t.Cleanup(server.Close)

	client := testClient(t, server.URL)
	got, err := client.GetStructuredContent(context.Background(), 77)
	if err != nil {
		t.Fatalf("GetStructuredContent() unexpected error: %v", err)
	}
	if got.ID != 77 || got.Key != "77001" {
		t.Fatalf("content = %d/%q, want 77/77001", got.ID, got.Key)
	}
	if len(got.Title) != len(bigTitle) {
		t.Fatalf("title length = %d, want %d", len(got.Title), len(bigTitle))
	}
}
