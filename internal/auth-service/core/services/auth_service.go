package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/finere-dem/MaliTrans/internal/auth-service/core/domain/dto"
	"github.com/finere-dem/MaliTrans/internal/auth-service/core/domain/model"
	"github.com/finere-dem/MaliTrans/internal/auth-service/core/myerrors"
	"github.com/finere-dem/MaliTrans/internal/auth-service/core/ports"
	"github.com/finere-dem/MaliTrans/internal/config"
	"github.com/finere-dem/MaliTrans/internal/mylogger"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	ctx   context.Context
	mylog mylogger.Logger
	cfg   *config.Appconfig
	users ports.IUsersRepo
	sms   ports.ISmsSender
}

func NewAuthService(
	ctx context.Context,
	log mylogger.Logger,
	cfg *config.Appconfig,
	users ports.IUsersRepo,
	sms ports.ISmsSender,
) ports.IAuthService {
	return &AuthService{
		ctx:   ctx,
		mylog: log,
		cfg:   cfg,
		users: users,
		sms:   sms,
	}
}

// Register creates an unverified account and sends a one-time code to the
// given phone. Driver accounts enter the onboarding pipeline at its first
// stage.
func (as *AuthService) Register(req dto.RegisterRequestDto) (dto.UserResponseDto, error) {
	log := as.mylog.Action("Register")

	if err := validateRegisterRequest(req); err != nil {
		return dto.UserResponseDto{}, err
	}
	role := strings.ToUpper(strings.TrimSpace(*req.Role))
	if !model.ValidRegistrationRole(role) {
		return dto.UserResponseDto{}, fmt.Errorf("role %q: %w", role, myerrors.ErrInvalidRole)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.UserResponseDto{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u := model.User{
		Username:     strings.TrimSpace(*req.Username),
		PasswordHash: string(hash),
		Role:         role,
		Phone:        strings.TrimSpace(*req.Phone),
		CompanyID:    req.CompanyId,
	}
	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if role == model.RoleDriver {
		// drivers are onboarded by a company, so the account must point at
		// an existing, active one from the start
		if req.CompanyId == nil {
			return dto.UserResponseDto{}, fmt.Errorf("company_id is required for a driver account: %w", myerrors.ErrFieldIsEmpty)
		}
		active, err := as.users.CompanyActive(as.ctx, *req.CompanyId)
		if err != nil {
			return dto.UserResponseDto{}, err
		}
		if !active {
			return dto.UserResponseDto{}, myerrors.ErrCompanyNotFound
		}
		u.Status = model.StatusPendingCompanyVerification
	}

	saved, err := as.users.Create(as.ctx, u)
	if err != nil {
		return dto.UserResponseDto{}, err
	}

	if err := as.issueOtp(saved); err != nil {
		log.Error("failed to issue verification code", err)
		return dto.UserResponseDto{}, err
	}

	log.With("user_id", saved.ID).With("role", saved.Role).Info("user registered")
	return toUserDto(saved), nil
}

// Verify consumes the pending one-time code. Expiry is checked here at
// redemption; consumption is atomic so a code works at most once.
func (as *AuthService) Verify(req dto.VerifyRequestDto) (dto.TokenResponseDto, error) {
	log := as.mylog.Action("Verify")

	if req.Username == nil || req.Code == nil {
		return dto.TokenResponseDto{}, fmt.Errorf("username and code are required: %w", myerrors.ErrFieldIsEmpty)
	}

	user, err := as.users.FindByUsername(as.ctx, strings.TrimSpace(*req.Username))
	if err != nil {
		return dto.TokenResponseDto{}, err
	}

	otp, ok, err := as.users.ConsumeOtp(as.ctx, user.ID)
	if err != nil {
		return dto.TokenResponseDto{}, err
	}
	if !ok || otp.Expired(time.Now()) || otp.Code != *req.Code {
		return dto.TokenResponseDto{}, myerrors.ErrInvalidOtp
	}

	verified, err := as.users.MarkVerified(as.ctx, user.ID)
	if err != nil {
		return dto.TokenResponseDto{}, err
	}

	token, err := as.signToken(verified)
	if err != nil {
		return dto.TokenResponseDto{}, err
	}

	log.With("user_id", verified.ID).Info("user verified")
	return dto.TokenResponseDto{AccessToken: token, User: toUserDto(verified)}, nil
}

func (as *AuthService) Login(req dto.LoginRequestDto) (dto.TokenResponseDto, error) {
	log := as.mylog.Action("Login")

	if req.Username == nil || req.Password == nil {
		return dto.TokenResponseDto{}, fmt.Errorf("username and password are required: %w", myerrors.ErrFieldIsEmpty)
	}

	user, err := as.users.FindByUsername(as.ctx, strings.TrimSpace(*req.Username))
	if err != nil {
		if errors.Is(err, myerrors.ErrUserNotFound) {
			return dto.TokenResponseDto{}, myerrors.ErrInvalidCredentials
		}
		return dto.TokenResponseDto{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(*req.Password)); err != nil {
		return dto.TokenResponseDto{}, myerrors.ErrInvalidCredentials
	}
	if !user.Verified {
		return dto.TokenResponseDto{}, myerrors.ErrNotVerified
	}

	token, err := as.signToken(user)
	if err != nil {
		return dto.TokenResponseDto{}, err
	}

	log.With("user_id", user.ID).Info("user logged in")
	return dto.TokenResponseDto{AccessToken: token, User: toUserDto(user)}, nil
}

func (as *AuthService) issueOtp(user model.User) error {
	code, err := generateOtp()
	if err != nil {
		return err
	}

	otp := model.OtpCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(time.Duration(as.cfg.OtpTTLMinutes) * time.Minute),
	}
	if err := as.users.SaveOtp(as.ctx, otp); err != nil {
		return err
	}

	// delivery failures are not fatal, the user can ask support to re-send
	msg := fmt.Sprintf("Your MaliTrans verification code is %s", code)
	if err := as.sms.Send(as.ctx, user.Phone, msg); err != nil {
		as.mylog.Action("issueOtp").Warn("failed to send verification code", "error", err.Error())
	}
	return nil
}

func (as *AuthService) signToken(user model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     time.Now().Add(time.Duration(as.cfg.AccessTokenHours) * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.cfg.JwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// generateOtp draws a uniform 6-digit code from crypto/rand.
func generateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func validateRegisterRequest(req dto.RegisterRequestDto) error {
	if req.Username == nil || strings.TrimSpace(*req.Username) == "" {
		return fmt.Errorf("username: %w", myerrors.ErrFieldIsEmpty)
	}
	if req.Password == nil || *req.Password == "" {
		return fmt.Errorf("password: %w", myerrors.ErrFieldIsEmpty)
	}
	if req.Role == nil || strings.TrimSpace(*req.Role) == "" {
		return fmt.Errorf("role: %w", myerrors.ErrFieldIsEmpty)
	}
	if req.Phone == nil || strings.TrimSpace(*req.Phone) == "" {
		return fmt.Errorf("phone: %w", myerrors.ErrFieldIsEmpty)
	}
	return nil
}

func toUserDto(u model.User) dto.UserResponseDto {
	return dto.UserResponseDto{
		Id:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Phone:     u.Phone,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CompanyId: u.CompanyID,
		Status:    u.Status,
		Verified:  u.Verified,
	}
}
