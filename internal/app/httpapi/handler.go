// Package httpapi exposes the domain services over HTTP. Every route is
// served twice: as an HTML page under / and as a JSON envelope under /api.
package httpapi

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/gorilla/sessions"

	"github.com/R3E-Network/bizhub/internal/app/audit"
	"github.com/R3E-Network/bizhub/internal/app/metrics"
	"github.com/R3E-Network/bizhub/internal/app/respond"
	"github.com/R3E-Network/bizhub/internal/app/services/addresses"
	"github.com/R3E-Network/bizhub/internal/app/services/categories"
	"github.com/R3E-Network/bizhub/internal/app/services/customers"
	"github.com/R3E-Network/bizhub/internal/app/services/inventory"
	"github.com/R3E-Network/bizhub/internal/app/services/products"
	"github.com/R3E-Network/bizhub/internal/logging"
)

// Services are the domain operations reachable over HTTP.
type Services struct {
	Customers  *customers.Service
	Addresses  *addresses.Service
	Categories *categories.Service
	Products   *products.Service
	Inventory  *inventory.Service
}

// Options configure NewHandler.
type Options struct {
	Services Services
	// Recorder receives one audit entry per mapped result.
	Recorder audit.Recorder
	// AuditReader serves GET /audit. Nil disables the route.
	AuditReader audit.Reader
	// Sessions stores flash data between a redirect and the next page.
	Sessions    sessions.Store
	SessionName string
	// Templates overrides the embedded page templates.
	Templates *template.Template
	// Middleware wraps every route, outermost first.
	Middleware []mux.MiddlewareFunc
	Logger     *logging.Logger
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	svc    Services
	mapper *respond.Mapper
	writer *respond.Writer
	audit  audit.Reader
	forms  *schema.Decoder
	log    *logging.Logger
}

// NewHandler returns the HTTP surface: page routes, /api data routes,
// /healthz and /metrics.
func NewHandler(opts Options) (http.Handler, error) {
	log := opts.Logger
	if log == nil {
		log = logging.NewDefault("httpapi")
	}
	tmpl := opts.Templates
	if tmpl == nil {
		parsed, err := ParseTemplates()
		if err != nil {
			return nil, err
		}
		tmpl = parsed
	}

	router := mux.NewRouter()
	router.StrictSlash(true)

	forms := schema.NewDecoder()
	forms.SetAliasTag("json")
	forms.IgnoreUnknownKeys(true)

	h := &handler{
		svc:    opts.Services,
		mapper: respond.NewMapper(opts.Recorder, log),
		writer: respond.NewWriter(opts.Sessions, tmpl, respond.MuxURLs{Router: router}, log).WithSessionName(opts.SessionName),
		audit:  opts.AuditReader,
		forms:  forms,
		log:    log,
	}

	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	app := router.PathPrefix("/").Subrouter()
	for _, mw := range opts.Middleware {
		app.Use(mw)
	}

	api := app.PathPrefix("/api").Subrouter()
	h.routes(api, false)
	h.routes(app, true)

	app.HandleFunc("/", h.home).Methods(http.MethodGet).Name("home")

	return methodOverride(router), nil
}

// routes registers every resource route on r. Only the page copy is named,
// so redirect targets always resolve to page URLs.
func (h *handler) routes(r *mux.Router, named bool) {
	add := func(path, name string, fn http.HandlerFunc, methods ...string) {
		route := r.HandleFunc(path, fn).Methods(methods...)
		if named && name != "" {
			route.Name(name)
		}
	}

	add("/customers", "customers.index", h.listCustomers, http.MethodGet)
	add("/customers", "", h.createCustomer, http.MethodPost)
	add("/customers/search", "customers.search", h.searchCustomers, http.MethodGet)
	add("/customers/{customer:[0-9]+}", "customers.show", h.showCustomer, http.MethodGet)
	add("/customers/{customer:[0-9]+}", "", h.updateCustomer, http.MethodPut)
	add("/customers/{customer:[0-9]+}", "", h.deleteCustomer, http.MethodDelete)

	add("/customers/{customer:[0-9]+}/addresses", "addresses.index", h.listAddresses, http.MethodGet)
	add("/customers/{customer:[0-9]+}/addresses", "", h.createAddress, http.MethodPost)
	add("/customers/{customer:[0-9]+}/addresses/{address:[0-9]+}", "", h.updateAddress, http.MethodPut)
	add("/customers/{customer:[0-9]+}/addresses/{address:[0-9]+}", "", h.deleteAddress, http.MethodDelete)
	add("/customers/{customer:[0-9]+}/addresses/{address:[0-9]+}/primary", "", h.setPrimaryAddress, http.MethodPost)

	add("/categories", "categories.index", h.listCategories, http.MethodGet)
	add("/categories", "", h.createCategory, http.MethodPost)
	add("/categories/{category:[0-9]+}", "categories.show", h.showCategory, http.MethodGet)
	add("/categories/{category:[0-9]+}", "", h.updateCategory, http.MethodPut)
	add("/categories/{category:[0-9]+}", "", h.deleteCategory, http.MethodDelete)

	add("/products", "products.index", h.listProducts, http.MethodGet)
	add("/products", "", h.createProduct, http.MethodPost)
	add("/products/search", "products.search", h.searchProducts, http.MethodGet)
	add("/products/{product:[0-9]+}", "products.show", h.showProduct, http.MethodGet)
	add("/products/{product:[0-9]+}", "", h.updateProduct, http.MethodPut)
	add("/products/{product:[0-9]+}", "", h.deleteProduct, http.MethodDelete)
	add("/products/{product:[0-9]+}/stock", "products.stock", h.listMovements, http.MethodGet)
	add("/products/{product:[0-9]+}/stock", "", h.adjustStock, http.MethodPost)

	if h.audit != nil {
		add("/audit", "audit.index", h.listAudit, http.MethodGet)
	}
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *handler) home(w http.ResponseWriter, r *http.Request) {
	_ = h.writer.Write(w, r, respond.Page{Template: "home"})
}

// methodOverride lets HTML forms issue PUT and DELETE through a POST with
// a _method field.
func methodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && isForm(r) {
			if err := r.ParseForm(); err == nil {
				switch m := strings.ToUpper(r.PostForm.Get("_method")); m {
				case http.MethodPut, http.MethodDelete:
					r.Method = m
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isForm(r *http.Request) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}
