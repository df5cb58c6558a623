package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "auction-engine"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

var internalError = mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}

// errorClasses is checked in order; the first sentinel matched by errors.Is wins.
var errorClasses = []struct {
	target error
	mapped mappedError
}{
	{usecase.ErrUnauthorized, mappedError{http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"}},
	{usecase.ErrDependencyUnavailable, mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
	{auction.ErrValidation, mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{auction.ErrAuthorization, mappedError{http.StatusForbidden, "forbidden", "PERMISSION_DENIED"}},
	{auction.ErrNotFound, mappedError{http.StatusNotFound, "notFound", "NOT_FOUND"}},
	{auction.ErrBudget, mappedError{http.StatusUnprocessableEntity, "insufficientBudget", "FAILED_PRECONDITION"}},
	{auction.ErrRaceCondition, mappedError{http.StatusConflict, "tooLate", "ABORTED"}},
	{auction.ErrStateConflict, mappedError{http.StatusConflict, "stateConflict", "FAILED_PRECONDITION"}},
}

func mapError(err error) mappedError {
	for _, class := range errorClasses {
		if errors.Is(err, class.target) {
			return class.mapped
		}
	}
	return internalError
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, googleResponseEnvelope{APIVersion: googleAPIVersion, Data: data})
}

// writeError renders err in the error envelope. Unclassified errors are reported
// as a generic internal error so driver messages never reach clients.
func writeError(_ context.Context, w http.ResponseWriter, err error) {
	mapped := mapError(err)
	msg := err.Error()
	if mapped == internalError {
		msg = "internal server error"
	}
	writeJSON(w, mapped.HTTPStatus, errorEnvelope(mapped, msg))
}

func writeInternalError(_ context.Context, w http.ResponseWriter) {
	writeJSON(w, internalError.HTTPStatus, errorEnvelope(internalError, "internal server error"))
}

func errorEnvelope(mapped mappedError, msg string) googleResponseEnvelope {
	return googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: msg,
			Status:  mapped.Status,
			Errors:  []googleErrorItem{{Domain: errorDomain, Reason: mapped.Reason, Message: msg}},
		},
	}
}
