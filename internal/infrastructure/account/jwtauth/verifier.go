package jwtauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/riskibarqy/auction-engine/internal/domain/user"
	"github.com/riskibarqy/auction-engine/internal/platform/cache"
	"github.com/riskibarqy/auction-engine/internal/platform/logging"
	"github.com/riskibarqy/auction-engine/internal/usecase"
)

const defaultCacheTTL = 30 * time.Second

type Config struct {
	Secret   string
	Issuer   string
	Leeway   time.Duration
	CacheTTL time.Duration
	Logger   *logging.Logger
}

// Claims carries the acting user. Subject is the numeric user id.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 bearer tokens and maps them to principals.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
	cache  *cache.Store[user.Principal]
	logger *logging.Logger
	now    func() time.Time
}

func NewVerifier(cfg Config) *Verifier {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	v := &Verifier{
		secret: []byte(cfg.Secret),
		cache:  cache.NewStore[user.Principal](ttl),
		logger: logger,
		now:    time.Now,
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return v.now() }),
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	if issuer := strings.TrimSpace(cfg.Issuer); issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	v.parser = jwt.NewParser(opts...)
	return v
}

func (v *Verifier) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}
	if len(v.secret) == 0 {
		return user.Principal{}, fmt.Errorf("%w: token verification is not configured", usecase.ErrUnauthorized)
	}

	key := hashToken(token)
	if principal, ok := v.cache.Get(ctx, key); ok {
		return principal, nil
	}

	var claims Claims
	parsed, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		v.logger.DebugContext(ctx, "rejected bearer token", "error", err)
		return user.Principal{}, fmt.Errorf("%w: invalid token", usecase.ErrUnauthorized)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return user.Principal{}, fmt.Errorf("%w: token subject is empty", usecase.ErrUnauthorized)
	}

	principal := user.Principal{UserID: subject, Name: strings.TrimSpace(claims.Name)}
	v.cache.Set(ctx, key, principal)
	return principal, nil
}

// Issue signs a token for the given principal; used by local tooling and tests.
func (v *Verifier) Issue(principal user.Principal, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Name: principal.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
