package handlers

import (
	"net/http"

	"smartbus/internal/domain"
	"smartbus/internal/services"

	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Name     string  `json:"name"`
	Age      *int    `json:"age"`
	Mobile   string  `json:"mobile"`
	Email    *string `json:"email"`
	Password string  `json:"password"`
}

type loginRequest struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

// POST /api/auth/signup
func Signup(c *gin.Context) {
	var req signupRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	_, err := authService(c).Signup(c.Request.Context(), services.SignupInput{
		Name:     req.Name,
		Age:      req.Age,
		Mobile:   req.Mobile,
		Email:    req.Email,
		Password: req.Password,
	})
	if domain.IsConflict(err) {
		// duplicate mobile/email is reported as a bad request
		RespondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!"})
}

// POST /api/auth/login
func Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	token, err := authService(c).Login(c.Request.Context(), req.Mobile, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
