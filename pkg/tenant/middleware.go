package tenant

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// DefaultHeader carries the tenant asserted by the upstream auth proxy.
const DefaultHeader = "X-Tenant-ID"

// Resolver extracts a tenant identifier from HTTP requests.
// Returns uuid.Nil and no error when the request carries no identifier.
type Resolver interface {
	Resolve(r *http.Request) (uuid.UUID, error)
}

// HeaderResolver reads the tenant ID from a request header.
type HeaderResolver struct {
	HeaderName string
}

// NewHeaderResolver creates a header resolver. An empty name selects DefaultHeader.
func NewHeaderResolver(headerName string) *HeaderResolver {
	if headerName == "" {
		headerName = DefaultHeader
	}
	return &HeaderResolver{HeaderName: headerName}
}

func (r *HeaderResolver) Resolve(req *http.Request) (uuid.UUID, error) {
	value := strings.TrimSpace(req.Header.Get(r.HeaderName))
	if value == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errors.Join(ErrInvalidIdentifier, err)
	}
	return id, nil
}

// ErrorHandler handles errors that occur during tenant resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidIdentifier):
		http.Error(w, "Invalid tenant identifier", http.StatusBadRequest)
	case errors.Is(err, ErrNoTenantInContext):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Middleware resolves the tenant ID and stores it in the request context.
// Requests without an identifier pass through untouched; use RequireTenant on
// routes that need one. A nil errorHandler selects a plain-text default.
func Middleware(resolver Resolver, errorHandler ...ErrorHandler) func(http.Handler) http.Handler {
	handleErr := ErrorHandler(defaultErrorHandler)
	if len(errorHandler) > 0 && errorHandler[0] != nil {
		handleErr = errorHandler[0]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolver.Resolve(r)
			if err != nil {
				handleErr(w, r, err)
				return
			}
			if id == uuid.Nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}

// RequireTenant rejects requests whose context carries no tenant ID.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IDFromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
