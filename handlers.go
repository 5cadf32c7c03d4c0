package slooze

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds request bodies read by the handlers.
const maxBodyBytes = 1 << 20

// statusByKind maps error kinds onto HTTP status codes.
var statusByKind = map[string]int{
	KindUnauthenticated:        http.StatusUnauthorized,
	KindForbidden:              http.StatusForbidden,
	KindNotFound:               http.StatusNotFound,
	KindInvalidQuantity:        http.StatusBadRequest,
	KindInconsistentRestaurant: http.StatusBadRequest,
	KindInvalidInput:           http.StatusBadRequest,
	KindInvalidTransition:      http.StatusConflict,
	KindAlreadyExists:          http.StatusConflict,
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	if status, ok := statusByKind[KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	kind := KindOf(err)
	msg := err.Error()
	if kind == KindInternal {
		msg = "internal error"
	}
	writeJSON(w, StatusFor(err), errorResponse{Error: kind, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return NewError(ErrInvalidInput, "request body is required")
		}
		return NewError(ErrInvalidInput, "malformed request body: "+err.Error())
	}
	return nil
}

// Handler serves the ordering API over HTTP.
type Handler struct {
	service *Service
	mw      *Middleware
	logger  Logger
	mux     *http.ServeMux
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger used for request failures.
func WithHandlerLogger(l Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithRoute mounts an additional unauthenticated handler, such as /metrics.
func WithRoute(pattern string, handler http.Handler) HandlerOption {
	return func(h *Handler) {
		h.mux.Handle(pattern, handler)
	}
}

// NewHandler builds the HTTP API.
//
// Example:
//
//	mw := slooze.NewMiddleware(service, slooze.NewTokenVerifier(secret))
//	h := slooze.NewHandler(service, mw, slooze.WithRoute("GET /metrics", promhttp.Handler()))
//	http.ListenAndServe(":8080", h)
func NewHandler(service *Service, mw *Middleware, opts ...HandlerOption) *Handler {
	h := &Handler{
		service: service,
		mw:      mw,
		logger:  NopLogger{},
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("GET /healthz", h.health)

	h.handle("GET /me", OpReadProfile, h.profile)
	h.handle("GET /restaurants", OpListRestaurants, h.listRestaurants)
	h.handle("POST /restaurants", OpCreateRestaurant, h.createRestaurant)
	h.handle("GET /restaurants/{id}", OpReadRestaurant, h.getRestaurant)
	h.handle("POST /restaurants/{id}/menu-items", OpCreateMenuItem, h.createMenuItem)
	h.handle("PATCH /menu-items/{id}", OpUpdateMenuItem, h.updateMenuItem)
	h.handle("GET /orders", OpListOrders, h.listOrders)
	h.handle("POST /orders", OpPlaceOrder, h.placeOrder)
	h.handle("GET /orders/{id}", OpReadOrder, h.getOrder)
	h.handle("GET /orders/{id}/events", OpReadOrder, h.orderEvents)
	h.handle("POST /orders/{id}/pay", OpPayOrder, h.payOrder)
	h.handle("POST /orders/{id}/cancel", OpCancelOrder, h.cancelOrder)
	h.handle("POST /orders/{id}/payment-method", OpUpdatePaymentMethod, h.updatePaymentMethod)

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type apiFunc func(w http.ResponseWriter, r *http.Request, actor Actor) error

// handle mounts fn behind audit, authentication and the operation gate.
func (h *Handler) handle(pattern string, op Operation, fn apiFunc) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		if !ok {
			writeError(w, ErrNoActor)
			return
		}
		if err := fn(w, r, actor); err != nil {
			if KindOf(err) == KindInternal {
				h.logger.WithContext(r.Context()).Error("request failed",
					"method", r.Method, "path", r.URL.Path, "error", err)
			}
			writeError(w, err)
		}
	})

	chain := h.mw.InjectAuditContext()(h.mw.Authenticate()(h.mw.RequireOperation(op)(inner)))
	h.mux.Handle(pattern, chain)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]any{"status": "ok"}

	if hm, ok := h.service.Store().(HealthMonitor); ok {
		health := hm.Health(ctx)
		if !health.Healthy {
			status = http.StatusServiceUnavailable
			body["status"] = "unavailable"
			if health.Error != "" {
				body["error"] = health.Error
			}
		}
	}
	if tm, ok := h.service.Store().(TransactionMonitor); ok {
		m := tm.GetTransactionMetrics()
		body["transactions"] = map[string]any{
			"total":   m.TotalTransactions,
			"failed":  m.FailedTransactions,
			"healthy": tm.IsTransactionHealthy(),
		}
	}
	writeJSON(w, status, body)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request, actor Actor) error {
	profile, err := h.service.Profile(r.Context(), actor)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, profile)
	return nil
}

func (h *Handler) listRestaurants(w http.ResponseWriter, r *http.Request, actor Actor) error {
	filter, err := parseListFilter(r)
	if err != nil {
		return err
	}
	restaurants, err := h.service.ListRestaurants(r.Context(), actor, filter)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, restaurants)
	return nil
}

func (h *Handler) createRestaurant(w http.ResponseWriter, r *http.Request, actor Actor) error {
	var in CreateRestaurantInput
	if err := decodeJSON(r, &in); err != nil {
		return err
	}
	restaurant, err := h.service.CreateRestaurant(r.Context(), actor, in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, restaurant)
	return nil
}

func (h *Handler) getRestaurant(w http.ResponseWriter, r *http.Request, actor Actor) error {
	restaurant, err := h.service.GetRestaurant(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, restaurant)
	return nil
}

func (h *Handler) createMenuItem(w http.ResponseWriter, r *http.Request, actor Actor) error {
	var in CreateMenuItemInput
	if err := decodeJSON(r, &in); err != nil {
		return err
	}
	in.RestaurantID = r.PathValue("id")
	item, err := h.service.CreateMenuItem(r.Context(), actor, in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, item)
	return nil
}

type updateMenuItemRequest struct {
	Price *decimal.Decimal `json:"price"`
}

func (h *Handler) updateMenuItem(w http.ResponseWriter, r *http.Request, actor Actor) error {
	var in updateMenuItemRequest
	if err := decodeJSON(r, &in); err != nil {
		return err
	}
	if in.Price == nil {
		return NewError(ErrInvalidInput, "price is required")
	}
	item, err := h.service.UpdateMenuItemPrice(r.Context(), actor, r.PathValue("id"), *in.Price)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, item)
	return nil
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, actor Actor) error {
	filter, err := parseListFilter(r)
	if err != nil {
		return err
	}
	orders, err := h.service.ListOrders(r.Context(), actor, filter)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, orders)
	return nil
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request, actor Actor) error {
	var in PlaceOrderInput
	if err := decodeJSON(r, &in); err != nil {
		return err
	}
	order, err := h.service.PlaceOrder(r.Context(), actor, in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, order)
	return nil
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, actor Actor) error {
	order, err := h.service.GetOrder(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, order)
	return nil
}

func (h *Handler) orderEvents(w http.ResponseWriter, r *http.Request, actor Actor) error {
	events, err := h.service.OrderHistory(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, events)
	return nil
}

func (h *Handler) payOrder(w http.ResponseWriter, r *http.Request, actor Actor) error {
	order, err := h.service.PayOrder(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, order)
	return nil
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request, actor Actor) error {
	order, err := h.service.CancelOrder(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, order)
	return nil
}

func (h *Handler) updatePaymentMethod(w http.ResponseWriter, r *http.Request, actor Actor) error {
	order, err := h.service.UpdatePaymentMethod(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, order)
	return nil
}

// parseListFilter reads region, restaurantId, status, since, until, limit and offset
// from the query string. Times are RFC 3339.
func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	filter := NewListFilter()

	if s := q.Get("region"); s != "" {
		region, err := ParseRegion(s)
		if err != nil {
			return filter, err
		}
		filter = filter.WithRegion(region)
	}
	if s := q.Get("restaurantId"); s != "" {
		filter = filter.WithRestaurant(s)
	}
	if s := q.Get("status"); s != "" {
		status := OrderStatus(s)
		switch status {
		case OrderPending, OrderPaid, OrderCancelled:
		default:
			return filter, NewError(ErrInvalidInput, "unknown status "+s)
		}
		filter = filter.WithStatus(status)
	}

	var since, until time.Time
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"since", &since}, {"until", &until}} {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return filter, NewError(ErrInvalidInput, "invalid "+p.name+" time")
		}
		*p.dst = t
	}
	if !since.IsZero() || !until.IsZero() {
		filter = filter.WithTimeRange(since, until)
	}

	limit, offset := filter.Limit, filter.Offset
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &limit}, {"offset", &offset}} {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return filter, NewError(ErrInvalidInput, "invalid "+p.name)
		}
		*p.dst = n
	}
	return filter.WithPagination(limit, offset), nil
}
