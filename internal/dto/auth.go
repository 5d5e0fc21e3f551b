package dto

import "github.com/Payphone-Digital/auth-service/internal/model"

// RegisterRequest limits mirror the field length constants.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role"`
	FCMToken string `json:"fcmToken" binding:"omitempty,max=4096"`
}

type RegisterResponse struct {
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FCMToken string `json:"fcmToken" binding:"omitempty,max=4096"`
}

type LoginResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         *model.User `json:"user"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type RefreshTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// LogoutRequest has no required fields: logout answers 200 regardless.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type IdentityResponse struct {
	ID   string     `json:"id"`
	Role model.Role `json:"role"`
}

type MeResponse struct {
	User IdentityResponse `json:"user"`
}
