package dto

type RegisterRequestDto struct {
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	Role      *string `json:"role"`
	Phone     *string `json:"phone"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	CompanyId *int64  `json:"company_id,omitempty"`
}

type VerifyRequestDto struct {
	Username *string `json:"username"`
	Code     *string `json:"code"`
}

type LoginRequestDto struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type UserResponseDto struct {
	Id        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	CompanyId *int64 `json:"company_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Verified  bool   `json:"verified"`
}

type TokenResponseDto struct {
	AccessToken string          `json:"access_token"`
	User        UserResponseDto `json:"user"`
}
