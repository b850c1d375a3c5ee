package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finere-dem/MaliTrans/internal/auth-service/core/myerrors"
)

// JsonResponse writes the given data as a JSON-encoded HTTP response.
func JsonResponse(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// JsonError writes an error response as JSON with the specified HTTP status code.
func JsonError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
		"code":  code,
	})
}

// JsonServiceError maps the auth error taxonomy onto HTTP codes.
func JsonServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, myerrors.ErrUserNotFound):
		JsonError(w, http.StatusNotFound, err)
	case errors.Is(err, myerrors.ErrUserAlreadyExists):
		JsonError(w, http.StatusConflict, err)
	case errors.Is(err, myerrors.ErrInvalidCredentials),
		errors.Is(err, myerrors.ErrNotVerified):
		JsonError(w, http.StatusUnauthorized, err)
	case errors.Is(err, myerrors.ErrInvalidOtp),
		errors.Is(err, myerrors.ErrFieldIsEmpty),
		errors.Is(err, myerrors.ErrInvalidRole),
		errors.Is(err, myerrors.ErrCompanyNotFound):
		JsonError(w, http.StatusBadRequest, err)
	default:
		JsonError(w, http.StatusInternalServerError, err)
	}
}
