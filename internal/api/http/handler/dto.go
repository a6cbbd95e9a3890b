package handler

import (
	"github.com/dtroode/adminauth-server/internal/model"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
	RealName string `json:"realName"`
}

type createUserRequest struct {
	Username string   `json:"username" binding:"required"`
	Password string   `json:"password" binding:"required"`
	Email    string   `json:"email"`
	RealName string   `json:"realName"`
	Roles    []string `json:"roles" binding:"required,min=1"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sendEmailCodeRequest struct {
	Email   string `json:"email" binding:"required"`
	Purpose string `json:"purpose"`
}

type emailCodeLoginRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// userSummary is the public view of a user. It never carries the hash.
type userSummary struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    *string  `json:"email"`
	RealName string   `json:"realName"`
	Roles    []string `json:"roles"`
}

func newUserSummary(user model.User) userSummary {
	s := userSummary{
		ID:       user.ID.String(),
		Username: user.Username,
		RealName: user.RealName,
		Roles:    user.Roles,
	}
	if user.Email != "" {
		email := user.Email
		s.Email = &email
	}
	if s.RealName == "" {
		s.RealName = user.Username
	}
	if s.Roles == nil {
		s.Roles = []string{}
	}
	return s
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  userSummary `json:"user"`
}

type sendEmailCodeResponse struct {
	ExpiresIn int64  `json:"expiresIn"`
	Code      string `json:"code,omitempty"`
}
