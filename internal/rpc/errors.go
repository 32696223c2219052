package rpc

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"rxdesk/m/domain"
	"rxdesk/m/internal/auth"
)

var (
	errUnknownProcedure = errors.New("unknown procedure")
	errMissingToken     = errors.New("missing bearer token")
	errForbidden        = errors.New("role not permitted for this procedure")
)

const (
	CodeNotFound          = "NOT_FOUND"
	CodeBadRequest        = "BAD_REQUEST"
	CodeInvalidRole       = "INVALID_ROLE"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeConflict          = "CONFLICT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeOverfill          = "OVERFILL"
	CodeInternal          = "INTERNAL"
)

// ErrorBody is the error envelope's payload.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// classify maps an error to its HTTP status and envelope. Anything it does
// not recognise is a storage failure and is reported without internals.
func classify(err error) (int, ErrorBody) {
	var (
		notFound *domain.NotFoundError
		stock    *domain.InsufficientStockError
		overfill *domain.OverfillError
		invalid  validator.ValidationErrors
		decode   *decodeError
		misuse   *validator.InvalidValidationError
	)
	switch {
	case errors.Is(err, errUnknownProcedure):
		return http.StatusNotFound, ErrorBody{Code: CodeNotFound, Message: err.Error()}
	case errors.As(err, &notFound):
		return http.StatusNotFound, ErrorBody{
			Code:    CodeNotFound,
			Message: err.Error(),
			Details: map[string]any{"entity": notFound.Entity, "id": notFound.ID},
		}
	case errors.As(err, &stock):
		return http.StatusConflict, ErrorBody{
			Code:    CodeInsufficientStock,
			Message: err.Error(),
			Details: map[string]any{
				"medicine_id": stock.MedicineID,
				"available":   stock.Available,
				"requested":   stock.Requested,
			},
		}
	case errors.As(err, &overfill):
		return http.StatusConflict, ErrorBody{
			Code:    CodeOverfill,
			Message: err.Error(),
			Details: map[string]any{
				"prescribed": overfill.Prescribed,
				"filled":     overfill.Filled,
				"attempted":  overfill.Attempted,
			},
		}
	case errors.As(err, &invalid):
		fields := make(map[string]any, len(invalid))
		for _, fe := range invalid {
			// Drop the leading struct name: "PrescriptionInput.items[0].medicine_id".
			field := fe.Namespace()
			if i := strings.IndexByte(field, '.'); i >= 0 {
				field = field[i+1:]
			}
			fields[field] = fe.Tag()
		}
		return http.StatusBadRequest, ErrorBody{Code: CodeBadRequest, Message: "validation failed", Details: fields}
	case errors.As(err, &misuse):
		return http.StatusInternalServerError, ErrorBody{Code: CodeInternal, Message: "internal error"}
	case errors.As(err, &decode):
		return http.StatusBadRequest, ErrorBody{Code: CodeBadRequest, Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, ErrorBody{Code: CodeInvalidRole, Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrNegativeFill),
		errors.Is(err, domain.ErrEmptyPrescription),
		errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrorBody{Code: CodeBadRequest, Message: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, ErrorBody{Code: CodeConflict, Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, errMissingToken):
		return http.StatusUnauthorized, ErrorBody{Code: CodeUnauthorized, Message: err.Error()}
	case errors.Is(err, errForbidden):
		return http.StatusForbidden, ErrorBody{Code: CodeForbidden, Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorBody{Code: CodeInternal, Message: "internal error"}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, procedure string, err error) {
	status, body := classify(err)
	evt := h.log.Debug()
	if status >= http.StatusInternalServerError {
		evt = h.log.Error()
	}
	evt.Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("procedure", procedure).
		Str("code", body.Code).
		Msg("procedure failed")
	respondJSON(w, status, map[string]any{"error": body})
}
