package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pharmapos/backend/internal/analysis"
	"pharmapos/backend/internal/audit"
	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/export"
	"pharmapos/backend/internal/invoice"
	"pharmapos/backend/internal/service"
)

const (
	maxJSONBytes   = 1 << 20
	maxUploadBytes = 10 << 20
)

type API struct {
	service       *service.Service
	allowedOrigin string
}

func New(svc *service.Service, allowedOrigin string) *API {
	return &API{service: svc, allowedOrigin: allowedOrigin}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(a.withMiddleware)

	r.Get("/healthz", a.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/medicines", func(r chi.Router) {
			r.Get("/", a.handleListMedicines)
			r.Post("/", a.handleCreatePending)
			r.Get("/pending", a.handleGetPending)
			r.Delete("/pending", a.handleDiscardPending)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.handleGetMedicine)
				r.Put("/", a.handleUpdateMedicine)
				r.Delete("/", a.handleDeleteMedicine)
				r.Post("/batches", a.handleAddInventoryBatch)
				r.Delete("/batches/{batchID}", a.handleRemoveInventoryBatch)

				r.Route("/batch-edit", func(r chi.Router) {
					r.Post("/", a.handleBeginBatchEdit)
					r.Get("/", a.handleBatchEdit)
					r.Delete("/", a.handleCancelBatchEdit)
					r.Post("/batches", a.handleAddEditBatch)
					r.Patch("/batches/{index}", a.handleEditBatchField)
					r.Delete("/batches/{index}", a.handleRemoveEditBatch)
					r.Post("/stage", a.handleStageBatchEdit)
				})
			})
		})

		r.Route("/carts/{mode}", func(r chi.Router) {
			r.Get("/", a.handleCart)
			r.Delete("/", a.handleClearCart)
			r.Post("/adjust", a.handleAdjustCart)
			r.Post("/quantity", a.handleSetCartQuantity)
			r.Delete("/lines/{medicineID}/{batchID}", a.handleRemoveCartLine)
			r.Post("/free-quantity", a.handleFreeQuantity)
			r.Post("/entries", a.handleRestockEntry)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", a.handleCheckout)
			r.Put("/customer", a.handleSetCustomer)
			r.Put("/invoice-details", a.handleSetInvoiceDetails)
			r.Get("/totals", a.handleCheckoutState)
		})
		r.Post("/restock", a.handleCommitRestock)
		r.Get("/invoices/{invoice}", a.handleInvoice)

		r.Get("/transactions", a.handleTransactions)
		r.Get("/transactions/export.csv", a.handleExportCSV)
		r.Get("/transactions/export.xlsx", a.handleExportXLSX)

		r.Get("/insights/stock", a.handleStockInsights)
		r.Post("/analysis", a.handleAnalysis)
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	// An empty body checks out without restock forwarding.
	var req domain.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	receipt, err := a.service.Checkout(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (a *API) handleSetCustomer(w http.ResponseWriter, r *http.Request) {
	var customer domain.Customer
	if err := decodeJSON(r, &customer); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, a.service.SetCustomer(customer))
}

func (a *API) handleSetInvoiceDetails(w http.ResponseWriter, r *http.Request) {
	var details domain.InvoiceDetails
	if err := decodeJSON(r, &details); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, a.service.SetInvoiceDetails(details))
}

func (a *API) handleCheckoutState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.service.CheckoutState())
}

func (a *API) handleCommitRestock(w http.ResponseWriter, r *http.Request) {
	receipt, err := a.service.CommitRestock(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// handleInvoice renders the printable invoice for a completed sale. The id
// may be given with or without its leading '#'.
func (a *API) handleInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "invoice"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !strings.HasPrefix(id, "#") {
		id = "#" + id
	}

	doc, err := a.service.InvoiceDocument(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))) {
	case "json":
		writeJSON(w, http.StatusOK, doc)
	default:
		page, err := invoice.RenderHTML(doc)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}
}

func transactionQuery(r *http.Request) (audit.Query, error) {
	values := r.URL.Query()
	q := audit.Query{
		Text:   values.Get("q"),
		Status: values.Get("status"),
		From:   strings.TrimSpace(values.Get("from")),
		To:     strings.TrimSpace(values.Get("to")),
		SortBy: strings.ToLower(strings.TrimSpace(values.Get("sort"))),
	}
	for _, day := range []string{q.From, q.To} {
		if day == "" {
			continue
		}
		if _, err := time.Parse(audit.DayLayout, day); err != nil {
			return audit.Query{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", day)
		}
	}
	switch q.SortBy {
	case "", audit.SortByDate, audit.SortByAmount:
	default:
		return audit.Query{}, fmt.Errorf("invalid sort %q", q.SortBy)
	}
	switch strings.ToLower(strings.TrimSpace(values.Get("order"))) {
	case "", "desc":
	case "asc":
		q.Ascending = true
	default:
		return audit.Query{}, fmt.Errorf("invalid order %q", values.Get("order"))
	}
	return q, nil
}

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := transactionQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	records := a.service.Transactions(q)
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 200, 1000)
	if len(records) > limit {
		records = records[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": records})
}

func (a *API) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	q, err := transactionQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	records := a.service.Transactions(q)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions-%s.csv\"", time.Now().Format("2006-01-02")))
	if err := export.WriteCSV(w, records); err != nil {
		log.Printf("[httpapi] WARN: csv export: %v", err)
	}
}

func (a *API) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	q, err := transactionQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	records := a.service.Transactions(q)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions-%s.xlsx\"", time.Now().Format("2006-01-02")))
	if err := export.WriteXLSX(w, records); err != nil {
		log.Printf("[httpapi] WARN: xlsx export: %v", err)
	}
}

func (a *API) handleStockInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := a.service.StockInsights(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

// handleAnalysis accepts a multipart upload with a required front_image and
// an optional back_image.
func (a *API) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err))
		return
	}

	front, err := readUpload(r, "front_image")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if front == nil {
		writeError(w, http.StatusBadRequest, errors.New("front_image is required"))
		return
	}
	back, err := readUpload(r, "back_image")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	prefill, err := a.service.AnalyzeImages(r.Context(), *front, back)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefill)
}

func readUpload(r *http.Request, field string) (*analysis.Image, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &analysis.Image{Filename: header.Filename, Data: data}, nil
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch service.Kind(err) {
	case service.KindValidation:
		return http.StatusUnprocessableEntity
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic; 4xx messages are user-facing.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
