package handle

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/finere-dem/MaliTrans/internal/mylogger"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/dto"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/ports"
)

type RidesHandler struct {
	ridesService ports.IRidesService
	log          mylogger.Logger
}

func NewRidesHandler(rs ports.IRidesService, log mylogger.Logger) *RidesHandler {
	return &RidesHandler{
		ridesService: rs,
		log:          log,
	}
}

func (rh *RidesHandler) CreateRide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}

		req := dto.RideCreateRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := rh.ridesService.CreateRide(caller, req)
		if err != nil {
			JsonServiceError(w, err)
			return
		}

		JsonResponse(w, http.StatusCreated, res)
	}
}

func (rh *RidesHandler) GetRide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}
		rideId, err := PathId(r, "ride_id")
		if err != nil {
			JsonError(w, http.StatusBadRequest, errors.New("invalid ride id"))
			return
		}

		res, err := rh.ridesService.GetRide(caller, rideId)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) ListReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}

		res, err := rh.ridesService.ListReady(caller)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) Validate() http.HandlerFunc {
	return rh.transition(func(caller ports.Caller, rideId int64, _ *http.Request) (dto.RideResponseDto, error) {
		return rh.ridesService.Validate(caller, rideId)
	})
}

func (rh *RidesHandler) Assign() http.HandlerFunc {
	return rh.transition(func(caller ports.Caller, rideId int64, _ *http.Request) (dto.RideResponseDto, error) {
		return rh.ridesService.Claim(caller, rideId)
	})
}

func (rh *RidesHandler) ConfirmPickup() http.HandlerFunc {
	return rh.codeTransition(rh.ridesService.ConfirmPickup)
}

func (rh *RidesHandler) ConfirmDelivery() http.HandlerFunc {
	return rh.codeTransition(rh.ridesService.ConfirmDelivery)
}

func (rh *RidesHandler) Cancel() http.HandlerFunc {
	return rh.transition(func(caller ports.Caller, rideId int64, _ *http.Request) (dto.RideResponseDto, error) {
		return rh.ridesService.Cancel(caller, rideId)
	})
}

func (rh *RidesHandler) UpdatePrice() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}
		rideId, err := PathId(r, "ride_id")
		if err != nil {
			JsonError(w, http.StatusBadRequest, errors.New("invalid ride id"))
			return
		}

		req := dto.PriceUpdateRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Price == nil {
			JsonError(w, http.StatusBadRequest, errors.New("price is required"))
			return
		}

		res, err := rh.ridesService.UpdatePrice(caller, rideId, *req.Price)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		res, err := rh.ridesService.History(caller, page, limit)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) Active() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}

		res, err := rh.ridesService.ActiveForDriver(caller)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) transition(do func(ports.Caller, int64, *http.Request) (dto.RideResponseDto, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}
		rideId, err := PathId(r, "ride_id")
		if err != nil {
			JsonError(w, http.StatusBadRequest, errors.New("invalid ride id"))
			return
		}

		res, err := do(caller, rideId, r)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) codeTransition(do func(ports.Caller, int64, string) (dto.RideResponseDto, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromRequest(r)
		if err != nil {
			JsonError(w, http.StatusUnauthorized, err)
			return
		}
		rideId, err := PathId(r, "ride_id")
		if err != nil {
			JsonError(w, http.StatusBadRequest, errors.New("invalid ride id"))
			return
		}

		req := dto.CodeConfirmRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == nil {
			JsonError(w, http.StatusBadRequest, errors.New("code is required"))
			return
		}

		res, err := do(caller, rideId, *req.Code)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}
