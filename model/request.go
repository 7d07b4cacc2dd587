// file: model/request.go

package model

// SignupRequest defines the payload for creating a new user.
// Passwords are capped at 72 bytes, the bcrypt input limit.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Bio      string `json:"bio" validate:"max=2000"`
}

// LoginRequest defines the payload for user and admin authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required,hexadecimal,len=64"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// UpdateUserRequest is a partial profile update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Name        *string           `json:"name" validate:"omitempty,min=2,max=100"`
	Bio         *string           `json:"bio" validate:"omitempty,max=2000"`
	SocialLinks map[string]string `json:"socialLinks" validate:"omitempty,dive,keys,min=1,max=32,endkeys,url"`
	Password    *string           `json:"password" validate:"omitempty,min=8,max=72"`
}

// MessageResponse is the generic confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthResponse is returned by signup and the login endpoints; tokens travel as cookies.
type AuthResponse struct {
	User *User `json:"user"`
}
