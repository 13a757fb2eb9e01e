package respond

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	svcerrors "github.com/R3E-Network/bizhub/internal/errors"
	"github.com/R3E-Network/bizhub/internal/logging"
)

var testTemplates = template.Must(template.New("root").Parse(
	`{{define "form"}}ok={{.Flash.Success}};err={{.Flash.Error}};name={{.OldInput.Get "name"}};slug={{index .Errors "slug"}};data={{.Data}}{{end}}`,
))

func newTestWriter() *Writer {
	router := mux.NewRouter()
	router.HandleFunc("/customers/{customer}", func(http.ResponseWriter, *http.Request) {}).Name("customers.show")
	store := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	return NewWriter(store, testTemplates, MuxURLs{Router: router}, quietLogger())
}

func TestWriteEnvelope(t *testing.T) {
	w := newTestWriter()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/customers", nil)

	out := Envelope{Status: http.StatusCreated, Body: Body{Success: true, Data: map[string]int{"id": 1}, Message: "ok"}}
	if err := w.Write(rec, req, out); err != nil {
		t.Fatalf("write: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != true || body["message"] != "ok" {
		t.Fatalf("unexpected body %v", body)
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("success body must not carry error: %v", body)
	}
}

func TestRedirectBackUsesSameOriginReferer(t *testing.T) {
	w := newTestWriter()
	cases := map[string]string{
		"":                                    "/",
		"http://example.com/customers?page=2": "/customers?page=2",
		"http://evil.test/phish":              "/",
		"/relative/path":                      "/relative/path",
	}
	for referer, want := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "http://example.com/customers", nil)
		if referer != "" {
			req.Header.Set("Referer", referer)
		}
		if err := w.Write(rec, req, Redirect{Target: Back}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != want {
			t.Fatalf("referer %q: location = %q, want %q", referer, got, want)
		}
	}
}

func TestRedirectResolvesNamedRoutesAndPaths(t *testing.T) {
	w := newTestWriter()
	cases := []struct {
		target string
		params map[string]string
		want   string
	}{
		{"customers.show", map[string]string{"customer": "9"}, "/customers/9"},
		{"/products", map[string]string{"page": "2"}, "/products?page=2"},
		{"/products", nil, "/products"},
		{"unknown.route", nil, "/"},
		{"//evil.test", nil, "/"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		_ = w.Write(rec, req, Redirect{Target: tc.target, Params: tc.params})
		if got := rec.Header().Get("Location"); got != tc.want {
			t.Fatalf("target %q: location = %q, want %q", tc.target, got, tc.want)
		}
	}
}

func TestFlashSurvivesExactlyOneRedirect(t *testing.T) {
	w := newTestWriter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/categories", nil)
	err := w.Write(rec, req, Redirect{
		Target:   "/categories/new",
		Flash:    Flash{Error: "Slug já existe"},
		OldInput: url.Values{"name": {"Chairs"}, "_method": {"PUT"}, "password": {"secret"}},
		Errors:   map[string]string{"slug": "Slug já existe"},
	})
	if err != nil {
		t.Fatalf("write redirect: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}

	render := func(cookies []*http.Cookie) (string, []*http.Cookie) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/categories/new", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		if err := w.Write(rec, req, Page{Template: "form", Data: "x"}); err != nil {
			t.Fatalf("write page: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		return rec.Body.String(), rec.Result().Cookies()
	}

	body, next := render(cookies)
	if body != "ok=;err=Slug já existe;name=Chairs;slug=Slug já existe;data=x" {
		t.Fatalf("unexpected first render %q", body)
	}
	if strings.Contains(body, "secret") {
		t.Fatal("password must not be flashed")
	}

	body, _ = render(next)
	if body != "ok=;err=;name=;slug=;data=x" {
		t.Fatalf("flash should be consumed, got %q", body)
	}
}

func TestCorruptFlashStillRendersPage(t *testing.T) {
	store := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	var logs bytes.Buffer
	w := NewWriter(store, testTemplates, MuxURLs{Router: mux.NewRouter()}, logging.NewWithOutput("test", "debug", "json", &logs))

	seed := httptest.NewRecorder()
	seedReq := httptest.NewRequest(http.MethodPost, "/categories", nil)
	session, err := store.Get(seedReq, w.sessionName)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	session.AddFlash("Slug já existe", flashErrorKey)
	session.AddFlash(`{"name":`, oldInputKey)
	session.AddFlash(`not json`, errorsKey)
	if err := session.Save(seedReq, seed); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/categories/new", nil)
	for _, c := range seed.Result().Cookies() {
		req.AddCookie(c)
	}
	if err := w.Write(rec, req, Page{Template: "form", Data: "x"}); err != nil {
		t.Fatalf("write page: %v", err)
	}
	if body := rec.Body.String(); body != "ok=;err=Slug já existe;name=;slug=;data=x" {
		t.Fatalf("unexpected render %q", body)
	}
	if got := strings.Count(logs.String(), "flash not readable"); got != 2 {
		t.Fatalf("expected two debug entries, got %d in %q", got, logs.String())
	}
}

func TestPageWithUnknownTemplate(t *testing.T) {
	w := newTestWriter()
	rec := httptest.NewRecorder()
	err := w.Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), Page{Template: "missing"})
	if err == nil {
		t.Fatal("expected render error")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestFail(t *testing.T) {
	w := newTestWriter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/customers", nil)
	_ = w.Fail(rec, req, FormatData, svcerrors.BadRequest("invalid JSON body", errors.New("eof")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/customers", nil)
	_ = w.Fail(rec, req, FormatPage, errors.New("boom"))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
}
