package directory

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/platform/cache"
	"github.com/riskibarqy/auction-engine/internal/platform/logging"
	"github.com/riskibarqy/auction-engine/internal/platform/resilience"
	"github.com/valyala/fasthttp"
)

const (
	defaultLookupPath = "/v1/registrations/lookup"
	defaultTimeout    = 3 * time.Second
	maxResponseBytes  = 1 << 20
)

var errDirectoryTransient = crerr.New("directory transient failure")

type Config struct {
	BaseURL        string
	LookupPath     string
	Timeout        time.Duration
	CacheTTL       time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
	Logger         *logging.Logger
}

// Client resolves player identifiers against the registration directory. It implements
// auction.Lookup; misses are cached like hits.
type Client struct {
	http      *fasthttp.Client
	lookupURL string
	timeout   time.Duration
	cache     *cache.Store[lookupResult]
	breaker   *resilience.CircuitBreaker
	logger    *logging.Logger
}

type lookupResult struct {
	player auction.Player
	found  bool
}

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	path := strings.TrimSpace(cfg.LookupPath)
	if path == "" {
		path = defaultLookupPath
	}
	breakerCfg := cfg.CircuitBreaker
	breakerCfg.IsFailure = isCircuitFailure

	c := &Client{
		http: &fasthttp.Client{
			Name:                "auction-engine-directory",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxResponseBytes,
		},
		lookupURL: buildURL(cfg.BaseURL, path),
		timeout:   timeout,
		cache:     cache.NewStore[lookupResult](cfg.CacheTTL),
		breaker:   resilience.NewCircuitBreaker(breakerCfg),
		logger:    logger,
	}
	c.breaker.OnStateChange(func(from, to resilience.CircuitState) {
		c.logger.Warn("directory circuit breaker state changed", "from", from.String(), "to", to.String())
	})
	return c
}

func (c *Client) Lookup(ctx context.Context, identifier string) (auction.Player, bool, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return auction.Player{}, false, nil
	}

	key := cacheKey(identifier)
	result, err := c.cache.GetOrLoad(ctx, key, func(ctx context.Context) (lookupResult, error) {
		return c.fetch(ctx, identifier)
	})
	if err != nil {
		return auction.Player{}, false, err
	}
	return result.player, result.found, nil
}

func (c *Client) fetch(ctx context.Context, identifier string) (lookupResult, error) {
	var result lookupResult
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = c.do(ctx, identifier)
		return err
	})
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "directory circuit breaker rejected request", "state", c.breaker.State().String())
	}
	return result, err
}

func (c *Client) do(ctx context.Context, identifier string) (lookupResult, error) {
	if err := ctx.Err(); err != nil {
		return lookupResult{}, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.lookupURL + "?q=" + url.QueryEscape(identifier))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	if err := c.http.DoTimeout(req, resp, c.requestTimeout(ctx)); err != nil {
		return lookupResult{}, crerr.Mark(crerr.Wrapf(err, "directory lookup %q", identifier), errDirectoryTransient)
	}

	status := resp.StatusCode()
	switch {
	case status == fasthttp.StatusNotFound:
		return lookupResult{}, nil
	case status >= 500 || status == fasthttp.StatusTooManyRequests:
		return lookupResult{}, crerr.Mark(crerr.Newf("directory status=%d", status), errDirectoryTransient)
	case status != fasthttp.StatusOK:
		return lookupResult{}, crerr.Newf("directory status=%d", status)
	}

	var decoded lookupResponse
	if err := jsoniter.Unmarshal(resp.Body(), &decoded); err != nil {
		return lookupResult{}, crerr.Wrap(err, "decode directory response")
	}
	if !decoded.Found {
		return lookupResult{}, nil
	}
	return lookupResult{player: decoded.Player.toDomain(), found: true}, nil
}

// requestTimeout honours a caller deadline shorter than the configured timeout.
func (c *Client) requestTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = max(remaining, time.Millisecond)
		}
	}
	return timeout
}

type lookupResponse struct {
	Found  bool        `json:"found"`
	Player playerEntry `json:"player"`
}

type playerEntry struct {
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Handle    string `json:"handle"`
	Role      string `json:"role"`
	Code      string `json:"registration_code"`
	BasePrice int64  `json:"base_price"`
}

func (p playerEntry) toDomain() auction.Player {
	return auction.Player{
		UserID:    p.UserID,
		Name:      strings.TrimSpace(p.Name),
		Handle:    strings.ToLower(strings.TrimPrefix(strings.TrimSpace(p.Handle), "@")),
		Role:      strings.TrimSpace(p.Role),
		Code:      strings.TrimSpace(p.Code),
		BasePrice: p.BasePrice,
	}
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errDirectoryTransient)
}

func cacheKey(identifier string) string {
	if key := auction.ParseIdentity(identifier).Key(); key != "" {
		return key
	}
	return strings.ToLower(identifier)
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return baseURL + path
}

func (c *Client) String() string {
	return fmt.Sprintf("directory(%s)", c.lookupURL)
}
