package handle

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/finere-dem/MaliTrans/internal/driver-service/core/domain/model"
	"github.com/finere-dem/MaliTrans/internal/driver-service/core/myerrors"
	"github.com/finere-dem/MaliTrans/internal/driver-service/core/ports"
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

// JsonServiceError maps the onboarding error taxonomy onto HTTP codes.
// MissingRequirementError responses additionally carry the machine-readable
// requirement code.
func JsonServiceError(w http.ResponseWriter, err error) {
	var (
		wrongState *model.WrongStateError
		missing    *model.MissingRequirementError
	)
	switch {
	case errors.Is(err, myerrors.ErrDriverNotFound),
		errors.Is(err, myerrors.ErrCompanyNotFound),
		errors.Is(err, myerrors.ErrGuarantorNotFound):
		JsonError(w, http.StatusNotFound, err)
	case errors.Is(err, myerrors.ErrAccessDenied):
		JsonError(w, http.StatusForbidden, err)
	case errors.As(err, &missing):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error":            missing.Detail,
			"requirement_code": missing.Code,
			"code":             http.StatusBadRequest,
		})
	case errors.As(err, &wrongState),
		errors.Is(err, myerrors.ErrNotADriver),
		errors.Is(err, myerrors.ErrFieldIsEmpty),
		errors.Is(err, myerrors.ErrTooManyGuarantors),
		errors.Is(err, myerrors.ErrInvalidNoteValue):
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

// PathId parses the {driver_id}-style path value.
func PathId(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
