package ports

import (
	"context"

	"github.com/finere-dem/MaliTrans/internal/auth-service/core/domain/dto"
)

type IAuthService interface {
	Register(req dto.RegisterRequestDto) (dto.UserResponseDto, error)
	Verify(req dto.VerifyRequestDto) (dto.TokenResponseDto, error)
	Login(req dto.LoginRequestDto) (dto.TokenResponseDto, error)
}

// ISmsSender delivers one-time codes. The in-repo implementation only logs;
// a real provider slots in behind the same interface.
type ISmsSender interface {
	Send(ctx context.Context, phone, message string) error
}
