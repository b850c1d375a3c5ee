package handle

import (
	"encoding/json"
	"net/http"

	"github.com/finere-dem/MaliTrans/internal/auth-service/core/domain/dto"
	"github.com/finere-dem/MaliTrans/internal/auth-service/core/ports"
	"github.com/finere-dem/MaliTrans/internal/mylogger"
)

type AuthHandler struct {
	authService ports.IAuthService
	log         mylogger.Logger
}

func NewAuthHandler(as ports.IAuthService, log mylogger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: as,
		log:         log,
	}
}

func (ah *AuthHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.RegisterRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := ah.authService.Register(req)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusCreated, res)
	}
}

func (ah *AuthHandler) Verify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.VerifyRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := ah.authService.Verify(req)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}

func (ah *AuthHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.LoginRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := ah.authService.Login(req)
		if err != nil {
			JsonServiceError(w, err)
			return
		}
		JsonResponse(w, http.StatusOK, res)
	}
}
