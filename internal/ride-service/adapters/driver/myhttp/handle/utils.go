package handle

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/model"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/myerrors"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/ports"
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

// JsonServiceError maps the core error taxonomy onto HTTP codes: unknown ids
// are 404 everywhere, authorization failures 403, lost claim races 409, and
// every guard failure 400.
func JsonServiceError(w http.ResponseWriter, err error) {
	var (
		invalidTransition *model.InvalidTransitionError
		alreadyTaken      *model.AlreadyTakenError
		notEligible       *model.DriverNotEligibleError
	)
	switch {
	case errors.Is(err, myerrors.ErrRideNotFound), errors.Is(err, myerrors.ErrUserNotFound):
		JsonError(w, http.StatusNotFound, err)
	case errors.Is(err, myerrors.ErrAccessDenied):
		JsonError(w, http.StatusForbidden, err)
	case errors.As(err, &alreadyTaken):
		JsonError(w, http.StatusConflict, err)
	case errors.As(err, &invalidTransition), errors.As(err, &notEligible):
		JsonError(w, http.StatusBadRequest, err)
	case errors.Is(err, myerrors.ErrInvalidCode),
		errors.Is(err, myerrors.ErrFieldIsEmpty),
		errors.Is(err, myerrors.ErrInvalidFlowType),
		errors.Is(err, myerrors.ErrInvalidPrice):
		JsonError(w, http.StatusBadRequest, err)
	default:
		JsonError(w, http.StatusInternalServerError, err)
	}
}

// CallerFromRequest reads the identity the auth middleware stamped on the
// request.
func CallerFromRequest(r *http.Request) (ports.Caller, error) {
	userId, err := strconv.ParseInt(r.Header.Get("X-UserId"), 10, 64)
	if err != nil {
		return ports.Caller{}, errors.New("missing authenticated user")
	}
	return ports.Caller{UserId: userId, Role: r.Header.Get("X-Role")}, nil
}

// PathId parses the {ride_id}-style path value.
func PathId(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
