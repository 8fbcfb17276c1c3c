package middleware

import (
	"context"
	"net/http"

	"github.com/iho/erpledger/internal/domain"
)

// TenantIDHeader is the header carrying the caller's tenant.
const TenantIDHeader = "X-Tenant-ID"

type tenantCtxKey struct{}

// Tenant resolves the tenant id from the request header and places it in
// the context. Authentication happens upstream; by the time a request gets
// here the header is trusted.
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(TenantIDHeader)
		if err := domain.ValidateTenantID(tenantID); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"missing or invalid ` + TenantIDHeader + ` header"}`))
			return
		}

		ctx := context.WithValue(r.Context(), tenantCtxKey{}, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithTenant returns a context carrying the given tenant id.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, tenantID)
}

// TenantID returns the tenant id stored in the context, or "" when the
// request did not pass through the Tenant middleware.
func TenantID(ctx context.Context) string {
	id, _ := ctx.Value(tenantCtxKey{}).(string)
	return id
}
