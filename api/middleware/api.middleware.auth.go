// FilePath: api/middleware/api.middleware.auth.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Nerzal/gocloak/v13"
	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/hubservice"
	"github.com/dosense/dohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// AuthProvider turns a bearer token into the calling user
type AuthProvider interface {
	Authenticate(ctx context.Context, token string) (*hubservice.UserContext, error)
}

// TokenVerifier checks locally issued tokens
type TokenVerifier interface {
	ParseToken(token string) (*hubservice.Claims, error)
}

// UserLookup resolves accounts referenced by a token
type UserLookup interface {
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// JWTProvider accepts HS256 tokens issued at login
type JWTProvider struct {
	tokens TokenVerifier
	users  UserLookup
}

func NewJWTProvider(tokens TokenVerifier, users UserLookup) *JWTProvider {
	return &JWTProvider{tokens: tokens, users: users}
}

func (p *JWTProvider) Authenticate(ctx context.Context, token string) (*hubservice.UserContext, error) {
	claims, err := p.tokens.ParseToken(token)
	if err != nil {
		return nil, err
	}
	// the account may have been deleted since the token was issued
	user, err := p.users.Get(ctx, claims.Subject)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewAuthError("Invalid token", nil)
		}
		return nil, err
	}
	return &hubservice.UserContext{ID: user.ID, Email: user.Email, Roles: []string{user.Role}}, nil
}

type KeycloakConfig struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
}

// KeycloakProvider introspects tokens issued by a Keycloak realm and maps them to
// local accounts by email
type KeycloakProvider struct {
	client *gocloak.GoCloak
	config KeycloakConfig
	users  UserLookup
}

func NewKeycloakProvider(config KeycloakConfig, users UserLookup) *KeycloakProvider {
	return &KeycloakProvider{
		client: gocloak.NewClient(config.URL),
		config: config,
		users:  users,
	}
}

func (k *KeycloakProvider) Authenticate(ctx context.Context, token string) (*hubservice.UserContext, error) {
	// Verify token
	result, err := k.client.RetrospectToken(ctx, token, k.config.ClientID, k.config.ClientSecret, k.config.Realm)
	if err != nil || result == nil || result.Active == nil || !*result.Active {
		return nil, errors.NewAuthError("invalid token", err)
	}

	roles, err := k.client.GetRealmRoles(ctx, token, k.config.Realm, gocloak.GetRoleParams{})
	if err != nil {
		return nil, errors.NewAuthError("failed to get realm roles", err)
	}
	info, err := k.client.GetUserInfo(ctx, token, k.config.Realm)
	if err != nil {
		return nil, errors.NewAuthError("failed to get user info", err)
	}
	if info == nil || info.Email == nil || *info.Email == "" {
		return nil, errors.NewAuthError("token carries no email", nil)
	}

	user, err := k.users.GetByEmail(ctx, *info.Email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewAuthError("account not registered", nil)
		}
		return nil, err
	}
	return &hubservice.UserContext{
		ID:    user.ID,
		Email: user.Email,
		Roles: mergeRoles([]string{user.Role}, extractRoles(roles)),
	}, nil
}

// AuthMiddleware guards dashboard routes with the configured provider
type AuthMiddleware struct {
	provider AuthProvider
}

func NewAuthMiddleware(provider AuthProvider) *AuthMiddleware {
	return &AuthMiddleware{provider: provider}
}

// Authenticate validates the token and adds user info to context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			handleError(w, errors.NewAuthError("Missing bearer token", nil))
			return
		}

		user, err := m.provider.Authenticate(r.Context(), token)
		if err != nil {
			handleError(w, err)
			return
		}

		ctx := hubservice.WithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles middleware ensures user has required roles
func (m *AuthMiddleware) RequireRoles(roles []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := hubservice.UserFromContext(r.Context())
			if !ok {
				handleError(w, errors.NewAuthError("no user context found", nil))
				return
			}

			if !hasRequiredRoles(user.Roles, roles) {
				handleError(w, errors.NewAuthorizationError("insufficient permissions", nil))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Helper functions

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

func extractRoles(roles []*gocloak.Role) []string {
	var roleStrings []string
	for _, role := range roles {
		if role != nil && role.Name != nil {
			roleStrings = append(roleStrings, *role.Name)
		}
	}
	return roleStrings
}

func mergeRoles(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, role := range append(append([]string{}, base...), extra...) {
		if role == "" || seen[role] {
			continue
		}
		seen[role] = true
		out = append(out, role)
	}
	return out
}

func hasRequiredRoles(userRoles, requiredRoles []string) bool {
	if len(requiredRoles) == 0 {
		return true
	}

	roleMap := make(map[string]bool)
	for _, role := range userRoles {
		roleMap[role] = true
	}

	for _, required := range requiredRoles {
		if required == "*" {
			return true
		}
		if !roleMap[required] {
			return false
		}
	}
	return true
}

func handleError(w http.ResponseWriter, err error) {
	apiErr, ok := errors.AsAPIError(err)
	if !ok {
		nuts.L.Errorf("[Auth] %v", err)
		apiErr = errors.NewInternalError("Internal Server Error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	json.NewEncoder(w).Encode(apiErr)
}
