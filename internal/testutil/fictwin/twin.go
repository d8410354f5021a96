// Package fictwin is an in-process stand-in for the accounting service used by
// tests. It keeps products, clients, and issued documents in memory, checks the
// bearer key and company id, records every request, and can be told to fail
// the next N calls to a route with chosen status codes.
package fictwin

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Product mirrors the remote product representation.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name,omitempty"`
	Code        string  `json:"code,omitempty"`
	NetPrice    float64 `json:"net_price,omitempty"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	Stock       float64 `json:"stock,omitempty"`
}

// Client mirrors the remote client entity.
type Client struct {
	ID    int64  `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Request is one recorded inbound call.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   []byte
	Header http.Header
}

// Twin is the fake service.
type Twin struct {
	APIKey    string
	CompanyID int64

	mu        sync.Mutex
	server    *httptest.Server
	products  map[int64]Product
	clients   []Client
	documents []json.RawMessage
	requests  []Request
	faults    map[string][]int
	nextID    int64
}

// New starts a twin accepting apiKey for companyID.
func New(apiKey string, companyID int64) *Twin {
	t := &Twin{
		APIKey:    apiKey,
		CompanyID: companyID,
		products:  map[int64]Product{},
		faults:    map[string][]int{},
		nextID:    1000,
	}
	r := chi.NewRouter()
	r.Use(t.record)
	r.Route("/c/{companyID}", func(r chi.Router) {
		r.Use(t.authenticate)
		r.Use(t.injectFaults)
		r.Get("/products", t.listProducts)
		r.Post("/products", t.createProduct)
		r.Put("/products/{productID}", t.updateProduct)
		r.Get("/entities/clients", t.listClients)
		r.Post("/entities/clients", t.createClient)
		r.Post("/issued_documents", t.createDocument)
	})
	t.server = httptest.NewServer(r)
	return t
}

// URL is the base URL to configure clients with.
func (t *Twin) URL() string { return t.server.URL }

// Close shuts the server down.
func (t *Twin) Close() { t.server.Close() }

// Fail makes the next len(statuses) calls to "METHOD /path" answer with those statuses.
// The path excludes the /c/{companyID} prefix.
func (t *Twin) Fail(method, path string, statuses ...int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := method + " " + path
	t.faults[key] = append(t.faults[key], statuses...)
}

// SeedProducts replaces the remote catalog.
func (t *Twin) SeedProducts(products ...Product) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.products = map[int64]Product{}
	for _, p := range products {
		t.products[p.ID] = p
	}
}

// SeedClient registers an existing client.
func (t *Twin) SeedClient(c Client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clients = append(t.clients, c)
}

// Requests returns a copy of every recorded request.
func (t *Twin) Requests() []Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Request, len(t.requests))
	copy(out, t.requests)
	return out
}

// CountRequests counts recorded requests for "METHOD /path" (prefix excluded).
func (t *Twin) CountRequests(method, path string) int {
	n := 0
	for _, r := range t.Requests() {
		if r.Method == method && t.trimPrefix(r.Path) == path {
			n++
		}
	}
	return n
}

// Documents returns the raw "data" payload of every issued document.
func (t *Twin) Documents() []json.RawMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]json.RawMessage, len(t.documents))
	copy(out, t.documents)
	return out
}

// Clients returns the registered clients.
func (t *Twin) Clients() []Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Client, len(t.clients))
	copy(out, t.clients)
	return out
}

// Products returns the remote catalog ordered by id.
func (t *Twin) Products() []Product {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sortedProducts()
}

func (t *Twin) trimPrefix(path string) string {
	return strings.TrimPrefix(path, fmt.Sprintf("/c/%d", t.CompanyID))
}

func (t *Twin) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		t.mu.Lock()
		t.requests = append(t.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   body,
			Header: r.Header.Clone(),
		})
		t.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (t *Twin) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+t.APIKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]string{"message": "Unauthorized"}})
			return
		}
		if chi.URLParam(r, "companyID") != strconv.FormatInt(t.CompanyID, 10) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]string{"message": "Company not found"}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (t *Twin) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + t.trimPrefix(r.URL.Path)
		t.mu.Lock()
		queue := t.faults[key]
		status := 0
		if len(queue) > 0 {
			status = queue[0]
			t.faults[key] = queue[1:]
		}
		t.mu.Unlock()
		if status != 0 {
			writeJSON(w, status, map[string]any{"error": map[string]string{"message": http.StatusText(status)}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (t *Twin) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	perPage := atoiDefault(q.Get("per_page"), 50)
	search := q.Get("q")

	t.mu.Lock()
	all := t.sortedProducts()
	t.mu.Unlock()
	if search != "" {
		filtered := all[:0:0]
		for _, p := range all {
			if strings.Contains(p.Code, search) || strings.Contains(p.Name, search) {
				filtered = append(filtered, p)
			}
		}
		all = filtered
	}
	lastPage := (len(all) + perPage - 1) / perPage
	if lastPage == 0 {
		lastPage = 1
	}
	start := (page - 1) * perPage
	end := start + perPage
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":         all[start:end],
		"current_page": page,
		"last_page":    lastPage,
		"per_page":     perPage,
		"total":        len(all),
	})
}

func (t *Twin) createProduct(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data Product `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	t.mu.Lock()
	t.nextID++
	body.Data.ID = t.nextID
	t.products[body.Data.ID] = body.Data
	t.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": body.Data})
}

func (t *Twin) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var body struct {
		Data Product `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	t.mu.Lock()
	_, ok := t.products[id]
	if ok {
		body.Data.ID = id
		t.products[id] = body.Data
	}
	t.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": body.Data})
}

func (t *Twin) listClients(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("q")
	t.mu.Lock()
	matches := make([]Client, 0)
	for _, c := range t.clients {
		if search == "" || strings.Contains(c.Email, search) || strings.Contains(c.Name, search) {
			matches = append(matches, c)
		}
	}
	t.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": matches})
}

func (t *Twin) createClient(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data Client `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	t.mu.Lock()
	t.nextID++
	body.Data.ID = t.nextID
	t.clients = append(t.clients, body.Data)
	t.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": body.Data})
}

func (t *Twin) createDocument(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.documents = append(t.documents, body.Data)
	t.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": id}})
}

func (t *Twin) sortedProducts() []Product {
	out := make([]Product, 0, len(t.products))
	for _, p := range t.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func atoiDefault(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
