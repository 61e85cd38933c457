package http

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"storefront/admin/internal/auth"
	"storefront/admin/internal/clients"
	"storefront/admin/internal/config"
	"storefront/admin/internal/events"
	"storefront/admin/internal/guard"
	"storefront/admin/internal/inventory"
	"storefront/admin/internal/metrics"
	"storefront/admin/internal/orders"
	"storefront/admin/internal/permissions"
	"storefront/admin/internal/requests"
	"storefront/admin/internal/session"
	"storefront/admin/internal/validation"
)

// Backend is the part of the commerce API the shell forwards to.
type Backend interface {
	inventory.Backend
	orders.Updater

	Login(ctx context.Context, req clients.LoginRequest) (clients.LoginResult, error)
	DashboardOverview(ctx context.Context) (clients.Overview, error)
	RevenueChart(ctx context.Context, startDate, endDate string) (clients.Revenue, error)

	ListUsers(ctx context.Context, q clients.ListQuery) (clients.Page[clients.User], error)
	GetUser(ctx context.Context, id int64) (clients.User, error)
	CreateUser(ctx context.Context, in clients.UserInput) (clients.User, error)
	DeleteUser(ctx context.Context, id int64) error
	BanUser(ctx context.Context, id int64) error
	UnbanUser(ctx context.Context, id int64) error
	WarnUser(ctx context.Context, id int64) error
	ChangeUserRole(ctx context.Context, id int64, role auth.Role) error
	UserStats(ctx context.Context) (clients.Stats, error)

	ListProducts(ctx context.Context, q clients.ListQuery) (clients.Page[clients.Product], error)
	GetProduct(ctx context.Context, id int64) (clients.Product, error)
	CreateProduct(ctx context.Context, in clients.ProductInput) (clients.Product, error)
	UpdateProduct(ctx context.Context, id int64, in clients.ProductInput) (clients.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ToggleProductActive(ctx context.Context, id int64) error
	UploadProductImage(ctx context.Context, productID int64, filename string, content io.Reader) (clients.Image, error)
	DeleteProductImage(ctx context.Context, imageID int64) error

	ListOrders(ctx context.Context, q clients.ListQuery) (clients.Page[clients.Order], error)
	GetOrder(ctx context.Context, id int64) (clients.Order, error)
	OrderStats(ctx context.Context, startDate, endDate string) (clients.Stats, error)

	ListReviews(ctx context.Context, q clients.ListQuery) (clients.Page[clients.Review], error)
	GetReview(ctx context.Context, id int64) (clients.Review, error)
	DeleteReview(ctx context.Context, id int64) error
}

type Server struct {
	cfg          config.Config
	store        *session.Store
	guard        *guard.Guard
	backend      Backend
	scopes       *requests.Scopes
	drafts       *inventory.Registry
	events       *events.Emitter
	metrics      *metrics.Metrics
	validate     *validator.Validate
	log          logrus.FieldLogger
	jwtPublicKey *rsa.PublicKey
	now          func() time.Time
}

func NewServer(cfg config.Config, store *session.Store, backend Backend, scopes *requests.Scopes, drafts *inventory.Registry, emitter *events.Emitter, m *metrics.Metrics, log logrus.FieldLogger) (*Server, error) {
	var publicKey *rsa.PublicKey
	if cfg.JWTPublicKey != "" {
		parsed, err := auth.ParseRSAPublicKey(cfg.JWTPublicKey)
		if err != nil {
			return nil, err
		}
		publicKey = parsed
	}
	s := &Server{
		cfg:          cfg,
		store:        store,
		backend:      backend,
		scopes:       scopes,
		drafts:       drafts,
		events:       emitter,
		metrics:      m,
		validate:     validation.New(),
		log:          log,
		jwtPublicKey: publicKey,
		now:          time.Now,
	}
	s.guard = guard.New(store, s.inspectToken, cfg.SessionCookie, m, log)
	return s, nil
}

func (s *Server) inspectToken(token string) error {
	_, err := auth.InspectToken(s.jwtPublicKey, s.cfg.JWTIssuer, token, s.now())
	return err
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Get("/unauthorized", s.handleUnauthorized)
	r.Get("/guard", s.handleGuardCheck)
	r.With(s.guard.Require()).Get("/me", s.handleMe)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})

	view := func(pattern string) func(http.Handler) http.Handler {
		return s.guard.Require(guard.MustCapability(pattern))
	}
	can := s.requireCapability

	r.With(view("/dashboard")).Get("/dashboard", s.handleDashboard)

	r.With(view("/users")).Get("/users", s.handleListUsers)
	r.With(view("/users")).Get("/users/stats", s.handleUserStats)
	r.With(view("/users/create")).Get("/users/create", s.handleCreateUserForm)
	r.With(view("/users/create")).Post("/users/create", s.handleCreateUser)
	r.With(view("/users/{id}")).Get("/users/{id}", s.handleGetUser)
	r.With(view("/users/{id}"), can(permissions.DeleteUsers)).Delete("/users/{id}", s.handleDeleteUser)
	r.With(view("/users/{id}"), can(permissions.BanUsers)).Post("/users/{id}/ban", s.handleBanUser)
	r.With(view("/users/{id}"), can(permissions.UnbanUsers)).Post("/users/{id}/unban", s.handleUnbanUser)
	r.With(view("/users/{id}"), can(permissions.WarnUsers)).Post("/users/{id}/warn", s.handleWarnUser)
	r.With(view("/users/{id}"), can(permissions.ChangeUserRole)).Put("/users/{id}/role", s.handleChangeUserRole)

	r.With(view("/products")).Get("/products", s.handleListProducts)
	r.With(view("/products/create")).Get("/products/create", s.handleCreateProductForm)
	r.With(view("/products/create")).Post("/products/create", s.handleCreateProduct)
	r.With(view("/products/{id}")).Get("/products/{id}", s.handleGetProduct)
	r.With(view("/products/{id}"), can(permissions.EditProduct)).Put("/products/{id}", s.handleUpdateProduct)
	r.With(view("/products/{id}"), can(permissions.DeleteProduct)).Delete("/products/{id}", s.handleDeleteProduct)
	r.With(view("/products/{id}"), can(permissions.ToggleProductActive)).Put("/products/{id}/toggle-active", s.handleToggleProduct)
	r.With(view("/products/{id}"), can(permissions.UploadProductImages)).Post("/products/{id}/images", s.handleUploadImages)
	r.With(view("/products"), can(permissions.DeleteProductImages)).Delete("/products/images/{imageId}", s.handleDeleteImage)

	r.With(view("/products/{id}"), can(permissions.ManageInventory)).Route("/products/{id}/inventory/draft", func(r chi.Router) {
		r.Post("/", s.handleOpenDraft)
		r.Get("/", s.handleGetDraft)
		r.Delete("/", s.handleDiscardDraft)
		r.Post("/reload", s.handleReloadDraft)
		r.With(can(permissions.AddInventory)).Post("/rows", s.handleAddDraftRow)
		r.Patch("/rows/{index}", s.handleUpdateDraftRow)
		r.Delete("/rows/{index}", s.handleRemoveDraftRow)
		r.With(can(permissions.UpdateInventory)).Post("/submit", s.handleSubmitDraft)
	})

	r.With(view("/orders")).Get("/orders", s.handleListOrders)
	r.With(view("/orders"), can(permissions.ViewOrderStats)).Get("/orders/stats", s.handleOrderStats)
	r.With(view("/orders/{id}")).Get("/orders/{id}", s.handleGetOrder)
	r.With(view("/orders/{id}"), can(permissions.UpdateOrders)).Put("/orders/{id}/status", s.handleUpdateOrderStatus)

	r.With(view("/reviews")).Get("/reviews", s.handleListReviews)
	r.With(view("/reviews/{id}")).Get("/reviews/{id}", s.handleGetReview)
	r.With(view("/reviews/{id}"), can(permissions.DeleteReviews)).Delete("/reviews/{id}", s.handleDeleteReview)

	return r
}

// requireCapability guards an action inside an already authorized view.
func (s *Server) requireCapability(c permissions.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, ok := guard.DecisionFromContext(r.Context())
			if !ok || !decision.Permissions.Has(c) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// backendError maps a failed backend call onto the shell's responses: 401
// ends the session, 403 sends the operator to the unauthorized view, the
// rest are shown inline with the server's message.
func (s *Server) backendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, clients.ErrUnauthorized):
		s.endSession(w, r)
		guard.Render(w, guard.Decision{State: guard.StateUnauthenticated, Redirect: guard.LoginPath})
	case errors.Is(err, clients.ErrForbidden):
		guard.Render(w, guard.Decision{State: guard.StateInsufficient, Redirect: guard.UnauthorizedPath})
	case errors.Is(err, clients.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "not_found", clients.MessageOf(err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeFailure(w, http.StatusGatewayTimeout, "backend_timeout", clients.DefaultMessage)
	default:
		var apiErr *clients.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			writeFailure(w, http.StatusUnprocessableEntity, "backend_rejected", apiErr.OperatorMessage())
			return
		}
		s.log.WithError(err).WithField("path", r.URL.Path).Warn("backend call failed")
		writeFailure(w, http.StatusBadGateway, "backend_error", clients.MessageOf(err))
	}
}

func isSessionError(err error) bool {
	return errors.Is(err, clients.ErrUnauthorized) || errors.Is(err, clients.ErrForbidden)
}

// endSession clears the stored session, drops its drafts and cancels its
// in-flight calls.
func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	id := session.ReadID(r, s.cfg.SessionCookie)
	if id == "" {
		return
	}
	if err := s.store.Clear(r.Context(), id); err != nil {
		s.log.WithError(err).Warn("session clear failed")
	}
	s.scopes.End(id)
	s.drafts.DiscardSession(id)
	http.SetCookie(w, session.ExpiredCookie(s.cfg.SessionCookie, s.cfg.SessionCookieSecure))
}

func (s *Server) emit(r *http.Request, eventType, entity string, entityID int64, data interface{}) {
	var actor *auth.Principal
	if sess := session.FromContext(r.Context()); sess != nil {
		actor = sess.Principal
	}
	s.events.Emit(r.Context(), events.New(eventType, actor, entity, entityID, data))
}

func (s *Server) sessionID(r *http.Request) string {
	if sess := session.FromContext(r.Context()); sess != nil {
		return sess.ID
	}
	return ""
}

func parseID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseListQuery(r *http.Request) clients.ListQuery {
	query := r.URL.Query()
	q := clients.ListQuery{
		Page:          parseInt(query.Get("page"), 0),
		Size:          parseInt(query.Get("size"), clients.DefaultPageSize),
		Search:        strings.TrimSpace(query.Get("search")),
		Role:          strings.ToUpper(strings.TrimSpace(query.Get("role"))),
		Status:        strings.ToUpper(strings.TrimSpace(query.Get("status"))),
		PaymentStatus: strings.ToUpper(strings.TrimSpace(query.Get("paymentStatus"))),
		StartDate:     query.Get("startDate"),
		EndDate:       query.Get("endDate"),
		IsBanned:      parseBool(query.Get("isBanned")),
		IsActive:      parseBool(query.Get("isActive")),
		CategoryID:    int64(parseInt(query.Get("categoryId"), 0)),
		ProductID:     int64(parseInt(query.Get("productId"), 0)),
		UserID:        int64(parseInt(query.Get("userId"), 0)),
	}
	if q.Size > 100 {
		q.Size = 100
	}
	return q
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func parseBool(raw string) *bool {
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
