// services/cart_handler.go

package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/brucePedroGomes/rocketShoes/cart"
	"github.com/brucePedroGomes/rocketShoes/catalog"
	"github.com/brucePedroGomes/rocketShoes/notify"
)

// Pinger reports whether the cart storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) bool
}

// CartHandler exposes a cart.Store over HTTP.
type CartHandler struct {
	store  *cart.Store
	health Pinger
	notes  *notify.Recorder
	log    *logrus.Entry
}

// NewCartHandler wires the HTTP API. notes may be nil, in which case
// GET /notifications always returns an empty list.
func NewCartHandler(store *cart.Store, health Pinger, notes *notify.Recorder, log *logrus.Entry) *CartHandler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &CartHandler{
		store:  store,
		health: health,
		notes:  notes,
		log:    log.WithField("component", "http"),
	}
}

// Router returns the routes, instrumented with otelmux under serviceName.
func (h *CartHandler) Router(serviceName string) http.Handler {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware(serviceName))

	r.HandleFunc("/cart", h.getCart).Methods(http.MethodGet)
	s := r.PathPrefix("/cart/products").Subrouter()
	s.HandleFunc("/{id}", h.addProduct).Methods(http.MethodPost)
	s.HandleFunc("/{id}", h.removeProduct).Methods(http.MethodDelete)
	s.HandleFunc("/{id}", h.updateProductAmount).Methods(http.MethodPut)

	r.HandleFunc("/notifications", h.getNotifications).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	return h.logMiddleware(r)
}

type lineView struct {
	cart.CartLine
	Subtotal string `json:"subtotal"`
}

type cartView struct {
	Lines   []lineView  `json:"lines"`
	Size    int         `json:"size"`
	Items   int         `json:"items"`
	Amounts map[int]int `json:"amounts"`
	Total   string      `json:"total"`
}

func newCartView(c cart.Cart) cartView {
	lines := c.Lines()
	views := make([]lineView, 0, len(lines))
	for _, l := range lines {
		views = append(views, lineView{CartLine: l, Subtotal: l.Subtotal().StringFixed(2)})
	}
	return cartView{
		Lines:   views,
		Size:    c.Len(),
		Items:   c.ItemCount(),
		Amounts: c.AmountByProduct(),
		Total:   c.Total().StringFixed(2),
	}
}

type errorView struct {
	Error string `json:"error"`
}

func (h *CartHandler) getCart(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, newCartView(h.store.Cart()))
}

func (h *CartHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	c, err := h.store.AddProduct(r.Context(), id)
	h.respond(w, c, err)
}

func (h *CartHandler) removeProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	c, err := h.store.RemoveProduct(r.Context(), id)
	h.respond(w, c, err)
}

type updateRequest struct {
	Amount *int `json:"amount"`
}

func (h *CartHandler) updateProductAmount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount == nil {
		h.writeJSON(w, http.StatusBadRequest, errorView{Error: "body must be {\"amount\": <integer>}"})
		return
	}
	c, err := h.store.UpdateProductAmount(r.Context(), id, *req.Amount)
	h.respond(w, c, err)
}

func (h *CartHandler) getNotifications(w http.ResponseWriter, _ *http.Request) {
	notes := []notify.Notification{}
	if h.notes != nil {
		notes = h.notes.All()
	}
	h.writeJSON(w, http.StatusOK, notes)
}

func (h *CartHandler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil && !h.health.Ping(r.Context()) {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "NOT_SERVING"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "SERVING"})
}

func (h *CartHandler) productID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorView{Error: "invalid product id " + strconv.Quote(raw)})
		return 0, false
	}
	return id, true
}

// respond writes the snapshot the mutation committed, or the user message of
// the failed operation with the matching status.
func (h *CartHandler) respond(w http.ResponseWriter, c cart.Cart, err error) {
	if err == nil {
		h.writeJSON(w, http.StatusOK, newCartView(c))
		return
	}
	var opErr *cart.OperationError
	if !errors.As(err, &opErr) {
		h.log.WithError(err).Error("unexpected cart error")
		h.writeJSON(w, http.StatusInternalServerError, errorView{Error: err.Error()})
		return
	}
	h.writeJSON(w, statusFor(opErr), errorView{Error: opErr.Message()})
}

func statusFor(opErr *cart.OperationError) int {
	switch {
	case errors.Is(opErr.Kind, cart.ErrStockExceeded):
		return http.StatusConflict
	case errors.Is(opErr.Kind, cart.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(opErr.Kind, cart.ErrCatalogLookupFailed):
		// only a catalog that answered "no such product" is a 404
		if errors.Is(opErr.Err, catalog.ErrNotFound) {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.Is(opErr.Kind, cart.ErrCollaboratorUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *CartHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithField("err", err).Error("write response")
	}
}

func (h *CartHandler) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
		}).Debug("got a new request")
		next.ServeHTTP(w, r)
	})
}
