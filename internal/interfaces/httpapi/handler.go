package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/domain/user"
	"github.com/riskibarqy/auction-engine/internal/platform/logging"
	"github.com/riskibarqy/auction-engine/internal/usecase"
)

const maxRequestBytes = 1 << 20

type Handler struct {
	auctionService *usecase.AuctionService
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(auctionService *usecase.AuctionService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		auctionService: auctionService,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", auction.ErrValidation, err)
	}

	return nil
}

// decodeRequest reads a strict JSON body into out and validates it.
func (h *Handler) decodeRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	decoder := jsoniter.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", auction.ErrValidation, err)
	}
	return h.validateRequest(ctx, out)
}

func requirePrincipal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return principal, nil
}

func venueIDFromPath(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("venueID"))
}

// fail logs at a level matching the error class and writes the error envelope.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg, venueID string, err error) {
	if mapError(err).HTTPStatus >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, "venue_id", venueID, "error", err)
	} else {
		h.logger.DebugContext(ctx, msg, "venue_id", venueID, "error", err)
	}
	writeError(ctx, w, err)
}
