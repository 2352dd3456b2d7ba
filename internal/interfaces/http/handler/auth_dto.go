package handler

// RegisterRequest signs up a new tenant and its owner
// @Name HandlerRegisterRequest
type RegisterRequest struct {
	TenantCode string `json:"tenant_code" binding:"required,tenant_code" example:"ACME"`
	TenantName string `json:"tenant_name" binding:"required,min=1,max=200" example:"Acme Traders Pvt Ltd"`
	Plan       string `json:"plan" binding:"omitempty,plan" example:"starter"`
	TrialDays  int    `json:"trial_days" binding:"omitempty,min=1,max=90" example:"14"`
	OwnerName  string `json:"owner_name" binding:"required,min=1,max=100" example:"Asha Mehta"`
	OwnerEmail string `json:"owner_email" binding:"required,email,max=200" example:"asha@acme.in"`
	Password   string `json:"password" binding:"required,min=8,max=128" example:"S3cure-pass"`
}

// LoginRequest represents the request body for user login
// @Name HandlerLoginRequest
type LoginRequest struct {
	TenantCode string `json:"tenant_code" binding:"required,max=50" example:"ACME"`
	Email      string `json:"email" binding:"required,email,max=200" example:"asha@acme.in"`
	Password   string `json:"password" binding:"required,max=128" example:"S3cure-pass"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally carries the refresh token to revoke with the session
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents the request body for password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message" example:"Logged out successfully"`
}
