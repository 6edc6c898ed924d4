package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/impacthands/internal/common"
)

// errorBody is the envelope of every failed response. Clients show Message.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type errorKind struct {
	sentinel error
	status   int
	code     string
}

// errorKinds is matched in order; the first sentinel found in the chain wins.
var errorKinds = []errorKind{
	{common.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
	{common.ErrRefreshTokenExpired, http.StatusUnauthorized, "refresh_token_expired"},
	{common.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{common.ErrInvalidCode, http.StatusForbidden, "otp_expired"},
	{common.ErrResendThrottled, http.StatusTooManyRequests, "over_email_send_rate_limit"},
	{common.ErrorUnauthorized, http.StatusForbidden, "forbidden"},
	{common.ErrorValidation, http.StatusBadRequest, "validation_failed"},
	{common.ErrorNotFound, http.StatusNotFound, "not_found"},
	{common.ErrorConflict, http.StatusConflict, "conflict"},
	{common.ErrorInternal, http.StatusInternalServerError, "internal_error"},
}

// statusOf maps err to a status, an error code and the user-facing message.
// Wrapped detail is never exposed unless it was attached with
// common.WithMessage.
func statusOf(err error) (int, errorBody) {
	kind := errorKind{common.ErrorInternal, http.StatusInternalServerError, "internal_error"}
	for _, k := range errorKinds {
		if errors.Is(err, k.sentinel) {
			kind = k
			break
		}
	}
	msg := kind.sentinel.Error()
	var me *common.MessageError
	if errors.As(err, &me) {
		msg = me.Message
	}
	return kind.status, errorBody{Error: kind.code, Message: msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, body := statusOf(err)
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: msg})
}
