package handle

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/finere-dem/MaliTrans/internal/driver-service/core/domain/dto"
	"github.com/finere-dem/MaliTrans/internal/driver-service/core/ports"
	"github.com/finere-dem/MaliTrans/internal/mylogger"
)

type DriversHandler struct {
	onboarding ports.IOnboardingService
	log        mylogger.Logger
}

func NewDriversHandler(os ports.IOnboardingService, log mylogger.Logger) *DriversHandler {
	return &DriversHandler{
		onboarding: os,
		log:        log,
	}
}

// company surface

func (dh *DriversHandler) CompanyVerify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}
		driverId, err := PathId(r, "driver_id")
		if err != nil {
			JsonError(w, http.StatusBadRequest, errors.New("invalid driver id"))
			return
		}

		req := dto.CompanyVerifyRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := dh.onboarding.CompanyVerify(caller, driverId, req.Guarantors)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (dh *DriversHandler) CompanyDrivers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		filter := ports.DriverFilterDto{
			Status: r.URL.Query().Get("status"),
			Search: r.URL.Query().Get("search"),
			Page:   page,
			Limit:  limit,
		}

		res, err := dh.onboarding.CompanyDrivers(caller, filter)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (dh *DriversHandler) CompanyPending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}

		res, err := dh.onboarding.CompanyPending(caller)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (dh *DriversHandler) CompanyDossier() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}
		driverId, err := PathId(r, "driver_id")
		if err != nil {
			JsonError(w, http.StatusBadRequest, errors.New("invalid driver id"))
			return
		}

		res, err := dh.onboarding.CompanyDossier(caller, driverId)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

// admin surface

func (dh *DriversHandler) AdminPending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}

		res, err := dh.onboarding.AdminPending(caller)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (dh *DriversHandler) AdminActivate() http.HandlerFunc {
	return dh.adminMove(dh.onboarding.AdminActivate)
}

func (dh *DriversHandler) AdminReject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}
		driverId, err := PathId(r, "driver_id")
		if err != nil {
			JsonError(w, http.StatusBadRequest, errors.New("invalid driver id"))
			return
		}

		req := dto.RejectRequestDto{}
		// body is optional, the reason is advisory
		_ = json.NewDecoder(r.Body).Decode(&req)
		reason := ""
		if req.Reason != nil {
			reason = *req.Reason
		}

		res, err := dh.onboarding.AdminReject(caller, driverId, reason)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (dh *DriversHandler) AdminSuspend() http.HandlerFunc {
	return dh.adminMove(dh.onboarding.AdminSuspend)
}

func (dh *DriversHandler) AdminUnsuspend() http.HandlerFunc {
	return dh.adminMove(dh.onboarding.AdminUnsuspend)
}

// driver self-service

func (dh *DriversHandler) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}

		res, err := dh.onboarding.Me(caller)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (dh *DriversHandler) AddGuarantor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}

		req := dto.GuarantorDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := dh.onboarding.AddGuarantor(caller, req)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusCreated, res)
	}
}

func (dh *DriversHandler) MyGuarantors() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}

		res, err := dh.onboarding.MyGuarantors(caller)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (dh *DriversHandler) UpdateDocument() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}

		req := dto.DocumentUpdateRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IdentityDocumentURL == nil {
			JsonError(w, http.StatusBadRequest, errors.New("identity_document_url is required"))
			return
		}

		res, err := dh.onboarding.UpdateDocument(caller, *req.IdentityDocumentURL)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (dh *DriversHandler) RequestActivation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}

		res, err := dh.onboarding.RequestActivation(caller)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

// ratings

func (dh *DriversHandler) RateDriver() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}
		driverId, err := PathId(r, "driver_id")
		if err != nil {
			JsonError(w, http.StatusBadRequest, errors.New("invalid driver id"))
			return
		}

		req := dto.NoteRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := dh.onboarding.RateDriver(caller, driverId, req)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusCreated, res)
	}
}

func (dh *DriversHandler) DriverNotes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}
		driverId, err := PathId(r, "driver_id")
		if err != nil {
			JsonError(w, http.StatusBadRequest, errors.New("invalid driver id"))
			return
		}

		res, err := dh.onboarding.DriverNotes(caller, driverId)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (dh *DriversHandler) adminMove(do func(ports.Caller, int64) (dto.DriverResponseDto, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}
		driverId, err := PathId(r, "driver_id")
		if err != nil {
			JsonError(w, http.StatusBadRequest, errors.New("invalid driver id"))
			return
		}

		res, err := do(caller, driverId)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}
