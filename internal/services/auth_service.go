package services

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
	"smartbus/internal/repositories"
	"smartbus/internal/utils"
)

var mobilePattern = regexp.MustCompile(`^\d{10}$`)

// DefaultTokenTTL applies when no TTL is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

type SignupInput struct {
	Name     string
	Age      *int
	Mobile   string
	Email    *string
	Password string
}

// Claims is the JWT payload: {"user":{"id":<user_id>}} plus exp/iat.
type Claims struct {
	User struct {
		ID int64 `json:"id"`
	} `json:"user"`
	jwt.RegisteredClaims
}

type AuthService struct {
	Users     repositories.UserRepository
	Secret    []byte
	TTL       time.Duration
	Now       func() time.Time
	RequestID string
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s AuthService) Signup(ctx context.Context, in SignupInput) (int64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Mobile = strings.TrimSpace(in.Mobile)
	if err := validateSignup(in); err != nil {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.Users.Create(ctx, models.User{
		Name:         in.Name,
		Age:          in.Age,
		Mobile:       in.Mobile,
		Email:        in.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return 0, err
	}
	utils.LogEvent(s.RequestID, "auth", "signup", fmt.Sprintf("user_id=%d", id))
	return id, nil
}

func validateSignup(in SignupInput) error {
	if in.Name == "" || in.Mobile == "" || in.Password == "" {
		return domain.ValidationError{Msg: "Name, mobile number, and password are required"}
	}
	if !mobilePattern.MatchString(in.Mobile) {
		return domain.ValidationError{Field: "mobile", Msg: "Mobile number must be 10 digits"}
	}
	if len([]rune(in.Name)) < 3 {
		return domain.ValidationError{Field: "name", Msg: "Name must be at least 3 characters long"}
	}
	if len(in.Password) < 6 {
		return domain.ValidationError{Field: "password", Msg: "Password must be at least 6 characters long"}
	}
	if in.Age != nil && (*in.Age < 1 || *in.Age > 120) {
		return domain.ValidationError{Field: "age", Msg: "Age must be between 1 and 120"}
	}
	if in.Email != nil {
		if _, err := mail.ParseAddress(*in.Email); err != nil {
			return domain.ValidationError{Field: "email", Msg: "Invalid email address", Err: err}
		}
	}
	return nil
}

// Login checks the credentials and returns a signed token.
func (s AuthService) Login(ctx context.Context, mobile, password string) (string, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" || password == "" {
		return "", domain.ValidationError{Msg: "Please provide mobile number and password."}
	}
	u, err := s.Users.GetByMobile(ctx, mobile)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", domain.ValidationError{Field: "password", Msg: "Invalid credentials.", Err: err}
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	token, err := IssueToken(s.Secret, u.UserID, s.now(), ttl)
	if err != nil {
		return "", err
	}
	utils.LogEvent(s.RequestID, "auth", "login", fmt.Sprintf("user_id=%d", u.UserID))
	return token, nil
}

func IssueToken(secret []byte, userID int64, now time.Time, ttl time.Duration) (string, error) {
	var c Claims
	c.User.ID = userID
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates an HS256 token and returns its claims.
func ParseToken(secret []byte, raw string) (Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, domain.UnauthorizedError{Msg: "Token is not valid", Err: err}
	}
	if c.User.ID <= 0 {
		return Claims{}, domain.UnauthorizedError{Msg: "Token is not valid"}
	}
	return c, nil
}
