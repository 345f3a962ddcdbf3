package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"eps-citas/internal/navigation"
	"eps-citas/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

const (
	MsgTokenRequerido = "Token de acceso requerido"
	MsgTokenInvalido  = "Token inválido o expirado"
	MsgSinPermiso     = "No tienes permiso para esta acción"
)

// AuthContext:
// - Si viene Bearer token => Verify() y setea claims.
// - Token inválido => 401 directo; el cliente purga la sesión con eso.
// - Sin token => el request sigue; RequireAuth decide.
func AuthContext(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, MsgTokenInvalido)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth corta con 401 si AuthContext no dejó claims.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetClaims(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, MsgTokenRequerido)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole corta con 403 si el rol del token no está en roles.
func RequireRole(roles ...navigation.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, MsgTokenRequerido)
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, MsgSinPermiso)
		})
	}
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok && c.UserID > 0
}

// WithClaims arma un contexto autenticado (tests de handlers).
func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func bearerToken(authHeader string) string {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}
