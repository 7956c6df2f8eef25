package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"smartbus/internal/domain"
	"smartbus/internal/repositories"
)

func TestSignupRejectsNineDigitMobile(t *testing.T) {
	svc := AuthService{}
	_, err := svc.Signup(context.Background(), SignupInput{Name: "Asha", Mobile: "987654321", Password: "secret1"})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != "Mobile number must be 10 digits" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestSignupValidation(t *testing.T) {
	age0, age30 := 0, 30
	bad := "not-an-email"
	cases := []struct {
		name string
		in   SignupInput
	}{
		{"missing password", SignupInput{Name: "Asha", Mobile: "9876543210"}},
		{"short name", SignupInput{Name: "As", Mobile: "9876543210", Password: "secret1"}},
		{"short password", SignupInput{Name: "Asha", Mobile: "9876543210", Password: "12345"}},
		{"age zero", SignupInput{Name: "Asha", Mobile: "9876543210", Password: "secret1", Age: &age0}},
		{"bad email", SignupInput{Name: "Asha", Mobile: "9876543210", Password: "secret1", Age: &age30, Email: &bad}},
	}
	for _, tc := range cases {
		if err := validateSignup(tc.in); !domain.IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestSignupHashesPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("Asha", nil, "9876543210", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))

	svc := AuthService{Users: repositories.UserRepository{DB: db}}
	id, err := svc.Signup(context.Background(), SignupInput{Name: " Asha ", Mobile: "9876543210", Password: "secret1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if id != 11 {
		t.Fatalf("expected id 11, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoginIssuesSevenDayToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	now := time.Now().Truncate(time.Second)
	mock.ExpectQuery("FROM users WHERE mobile").
		WithArgs("9876543210").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "age", "mobile", "email", "password_hash", "created_at"}).
			AddRow(5, "Asha", nil, "9876543210", nil, string(hash), now))

	secret := []byte("test-secret")
	svc := AuthService{
		Users:  repositories.UserRepository{DB: db},
		Secret: secret,
		TTL:    7 * 24 * time.Hour,
		Now:    func() time.Time { return now },
	}
	token, err := svc.Login(context.Background(), "9876543210", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.User.ID != 5 {
		t.Fatalf("expected user 5, got %d", claims.User.ID)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 7*24*time.Hour {
		t.Fatalf("expected 7 day validity, got %v", got)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	mock.ExpectQuery("FROM users WHERE mobile").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "age", "mobile", "email", "password_hash", "created_at"}).
			AddRow(5, "Asha", 30, "9876543210", "a@b.in", string(hash), time.Now()))

	svc := AuthService{Users: repositories.UserRepository{DB: db}, Secret: []byte("x"), TTL: time.Hour}
	_, err = svc.Login(context.Background(), "9876543210", "wrong")
	if !domain.IsValidation(err) || err.Error() != "Invalid credentials." {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	secret := []byte("s")
	token, err := IssueToken(secret, 1, time.Now().Add(-48*time.Hour), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseToken(secret, token); !domain.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
