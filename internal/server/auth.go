package server

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/lifeos/internal/config"
	"github.com/p-blackswan/lifeos/internal/lru"
	"github.com/p-blackswan/lifeos/internal/metrics"
	"github.com/p-blackswan/lifeos/internal/nav"
)

const (
	localUser = "local"
	ownerUser = "owner"

	identityKey = "identity"
)

// Identity is the authenticated caller. All data access is scoped by UserID.
type Identity struct {
	UserID string   `json:"user_id"`
	Role   nav.Role `json:"role"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Mode      string // "jwt", "api-key", "none"
	APIKey    string
	JWTSecret string
	JWTIssuer string
	CacheSize int
}

// Claims are the JWT claims the API accepts: sub is the user id.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken mints an HS256 token for userID.
func IssueToken(secret, issuer, userID string, role nav.Role, ttl time.Duration, now time.Time) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

type authenticator struct {
	cfg     AuthConfig
	cache   *lru.Cache[string, Identity]
	metrics *metrics.Metrics
	now     func() time.Time
	logger  zerolog.Logger
}

func newAuthenticator(cfg AuthConfig, m *metrics.Metrics, now func() time.Time, logger zerolog.Logger) *authenticator {
	a := &authenticator{cfg: cfg, metrics: m, now: now, logger: logger}
	if cfg.Mode == config.AuthJWT && cfg.CacheSize > 0 {
		a.cache = lru.New[string, Identity](cfg.CacheSize)
		a.cache.SetClock(now)
	}
	return a
}

// middleware validates the Authorization header and stores the caller's
// Identity in the request locals.
func (a *authenticator) middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if a.cfg.Mode == config.AuthNone {
			c.Locals(identityKey, Identity{UserID: localUser, Role: nav.RoleAdmin})
			return c.Next()
		}

		path := c.Path()
		if isProbe(path) || c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return problemResponse(c, fiber.StatusUnauthorized,
				"missing_auth", "Unauthorized",
				"Authorization header is required")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_auth_scheme", "Unauthorized",
				"Authorization header must use Bearer scheme")
		}

		// Header values alias fiber's request buffer; the token outlives the
		// request as a cache key.
		token := utils.CopyString(strings.TrimPrefix(authHeader, "Bearer "))

		var (
			id  Identity
			err error
		)
		switch a.cfg.Mode {
		case config.AuthAPIKey:
			id, err = a.checkAPIKey(token)
		default:
			id, err = a.checkJWT(token)
		}
		if err != nil {
			a.logger.Warn().
				Err(err).
				Str("path", path).
				Str("method", c.Method()).
				Msg("unauthorized request")
			if a.metrics != nil {
				a.metrics.RecordError("auth", "invalid_token")
			}
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_token", "Unauthorized",
				"Invalid or expired credentials")
		}

		c.Locals(identityKey, id)
		return c.Next()
	}
}

func (a *authenticator) checkAPIKey(token string) (Identity, error) {
	if a.cfg.APIKey == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.cfg.APIKey)) != 1 {
		return Identity{}, errors.New("api key mismatch")
	}
	return Identity{UserID: ownerUser, Role: nav.RoleAdmin}, nil
}

func (a *authenticator) checkJWT(token string) (Identity, error) {
	if a.cache != nil {
		cached, ok := a.cache.Get(token)
		if a.metrics != nil {
			a.metrics.RecordTokenCache(ok)
		}
		if ok {
			return cached, nil
		}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.JWTIssuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(a.cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("parsing token: %w", err)
	}
	if claims.Subject == "" {
		return Identity{}, errors.New("token has no subject")
	}

	id := Identity{UserID: claims.Subject, Role: nav.ParseRole(claims.Role)}
	if a.cache != nil {
		a.cache.Put(token, id, claims.ExpiresAt.Time)
	}
	return id, nil
}

// identity returns the caller set by the auth middleware.
func identity(c *fiber.Ctx) Identity {
	id, _ := c.Locals(identityKey).(Identity)
	return id
}

// requireRole returns a middleware that enforces a role. Admins pass every check.
func requireRole(role nav.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := identity(c).Role
		if got != role && got != nav.RoleAdmin {
			return problemResponse(c, fiber.StatusForbidden,
				"insufficient_role", "Forbidden",
				"Insufficient permissions for this operation")
		}
		return c.Next()
	}
}

func isProbe(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}
