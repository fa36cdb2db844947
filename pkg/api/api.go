// Package api exposes the order service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"

	"orderdesk/pkg/logger"
	"orderdesk/pkg/order"
	"orderdesk/pkg/otel"
	"orderdesk/pkg/session"
)

const sessionCookie = "session_id"

// Sessions is the session backend the API authenticates against.
type Sessions interface {
	Create(ctx context.Context, user string) (string, error)
	Lookup(ctx context.Context, sid string) (string, error)
	Delete(ctx context.Context, sid string) error
	TTL() time.Duration
}

// Server holds the handler dependencies.
type Server struct {
	orders   *order.Service
	sessions Sessions
	log      *logger.Logger
	tracer   trace.Tracer
}

// New returns a Server. tracer may be nil, in which case spans go to the
// global provider.
func New(orders *order.Service, sessions Sessions, log *logger.Logger, tracer trace.Tracer) *Server {
	return &Server{orders: orders, sessions: sessions, log: log, tracer: tracer}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.traceMiddleware)
	r.HandleFunc("/login", s.loginHandler).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.logoutHandler).Methods(http.MethodPost)

	api := r.PathPrefix("/orders").Subrouter()
	api.Use(s.authMiddleware)
	api.HandleFunc("", s.createOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("", s.queryOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.getOrderHandler).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.updateOrderHandler).Methods(http.MethodPut)
	api.HandleFunc("/{id}", s.deleteOrderHandler).Methods(http.MethodDelete)

	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	return r
}

type userKey struct{}

// UserFromContext returns the authenticated user name, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(userKey{}).(string)
	return u, ok
}

// loginRequest represents login credentials.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// createOrderRequest is the body accepted by POST /orders.
type createOrderRequest struct {
	ID       string           `json:"id"`
	Customer string           `json:"customer"`
	Items    []order.LineItem `json:"items"`
}

// updateOrderRequest is the body accepted by PUT /orders/{id}.
type updateOrderRequest struct {
	Customer string `json:"customer"`
}

// loginHandler handles user login and session creation.
// @Summary Login
// @Description Authenticates user and sets session cookie
// @Accept json
// @Produce json
// @Param creds body loginRequest true "Credentials"
// @Success 200
// @Router /login [post]
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "loginHandler")
	defer span.End()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid credentials", http.StatusBadRequest)
		return
	}
	sid, err := s.sessions.Create(ctx, req.Username)
	if err != nil {
		s.log.Error(ctx, "create session", "error", err)
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		Expires:  time.Now().Add(s.sessions.TTL()),
		HttpOnly: true,
	})
	s.log.Info(ctx, "login", "user", req.Username)
	w.WriteHeader(http.StatusOK)
}

// logoutHandler ends the caller's session.
// @Summary Logout
// @Success 204
// @Router /logout [post]
func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "logoutHandler")
	defer span.End()

	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := s.sessions.Delete(ctx, c.Value); err != nil {
			s.log.Error(ctx, "delete session", "error", err)
			http.Error(w, "session error", http.StatusInternalServerError)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

// authMiddleware ensures a valid session exists.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		user, err := s.sessions.Lookup(r.Context(), c.Value)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				s.log.Error(r.Context(), "lookup session", "error", err)
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.tracer != nil {
			ctx = otel.InjectTracing(ctx, s.tracer)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// createOrderHandler creates a new order.
// @Summary Create order
// @Accept json
// @Produce json
// @Param order body createOrderRequest true "Order"
// @Success 201 {object} order.View
// @Failure 409 {string} string "order already exists"
// @Security ApiKeyAuth
// @Router /orders [post]
func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createOrderHandler")
	defer span.End()

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := s.orders.AddOrder(ctx, req.ID, req.Customer, req.Items); err != nil {
		s.writeError(ctx, w, "create order", err)
		return
	}
	o, err := s.orders.GetOrder(ctx, req.ID)
	if err != nil {
		s.writeError(ctx, w, "create order", err)
		return
	}
	writeJSON(w, http.StatusCreated, o.View())
}

// queryOrdersHandler lists orders matching the optional filters, sorted by total.
// @Summary Query orders
// @Produce json
// @Param keyword query string false "Substring of id or customer"
// @Param min_amount query number false "Minimum total"
// @Param max_amount query number false "Maximum total"
// @Success 200 {array} order.View
// @Security ApiKeyAuth
// @Router /orders [get]
func (s *Server) queryOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "queryOrdersHandler")
	defer span.End()

	q, err := parseQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	orders, err := s.orders.QueryOrders(ctx, q)
	if err != nil {
		s.writeError(ctx, w, "query orders", err)
		return
	}
	writeJSON(w, http.StatusOK, order.Views(orders))
}

// getOrderHandler retrieves an order by ID.
// @Summary Get order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.View
// @Security ApiKeyAuth
// @Router /orders/{id} [get]
func (s *Server) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	o, err := s.orders.GetOrder(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(ctx, w, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, o.View())
}

// updateOrderHandler changes the customer of an existing order.
// @Summary Update order customer
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param order body updateOrderRequest true "New customer"
// @Success 200 {object} order.View
// @Security ApiKeyAuth
// @Router /orders/{id} [put]
func (s *Server) updateOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateOrderHandler")
	defer span.End()

	id := mux.Vars(r)["id"]
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.orders.UpdateOrder(ctx, id, req.Customer); err != nil {
		s.writeError(ctx, w, "update order", err)
		return
	}
	o, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		s.writeError(ctx, w, "update order", err)
		return
	}
	writeJSON(w, http.StatusOK, o.View())
}

// deleteOrderHandler removes an order.
// @Summary Delete order
// @Param id path string true "Order ID"
// @Success 204
// @Security ApiKeyAuth
// @Router /orders/{id} [delete]
func (s *Server) deleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "deleteOrderHandler")
	defer span.End()

	if err := s.orders.DeleteOrder(ctx, mux.Vars(r)["id"]); err != nil {
		s.writeError(ctx, w, "delete order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseQuery(r *http.Request) (order.Query, error) {
	v := r.URL.Query()
	q := order.Query{Keyword: v.Get("keyword")}
	var err error
	if q.MinAmount, err = parseBound(v.Get("min_amount")); err != nil {
		return order.Query{}, fmt.Errorf("min_amount: %w", err)
	}
	if q.MaxAmount, err = parseBound(v.Get("max_amount")); err != nil {
		return order.Query{}, fmt.Errorf("max_amount: %w", err)
	}
	return q, nil
}

func parseBound(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.New("not a number")
	}
	if math.IsNaN(f) {
		return nil, errors.New("not a number")
	}
	return &f, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, order.ErrEmptyID), errors.Is(err, order.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error(ctx, op, "error", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
