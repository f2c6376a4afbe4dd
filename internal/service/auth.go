package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"familytree_go/internal/model"
	"familytree_go/internal/repository"
)

// Claims is the JWT payload. UID is the opaque partition key for the
// holder's family collection.
type Claims struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService issues sessions for registered accounts and for anonymous
// guests. Every session carries a stable UID; the rest of the system treats
// it as an opaque key.
type AuthService struct {
	db            *repository.DB
	secret        string
	tokenDuration time.Duration
}

// NewAuthService creates the auth service.
func NewAuthService(db *repository.DB, secret string, tokenDuration time.Duration) *AuthService {
	return &AuthService{db: db, secret: secret, tokenDuration: tokenDuration}
}

// Register creates an account and returns a session token.
func (a *AuthService) Register(username, email, password string) (string, error) {
	var count int64
	if err := a.db.Model(&model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return "", model.NewPersistenceError("failed to check username", err)
	}
	if count > 0 {
		return "", model.NewError(model.ErrValidation, "username already exists", nil)
	}

	user := model.User{
		UID:      uuid.NewString(),
		Username: username,
		Email:    email,
	}
	if err := user.SetPassword(password); err != nil {
		return "", model.NewError(model.ErrInternal, "failed to hash password", err)
	}
	if err := a.db.Create(&user).Error; err != nil {
		return "", model.NewPersistenceError("failed to create user", err)
	}
	return a.GenerateToken(&user)
}

// Login verifies credentials and returns a session token.
func (a *AuthService) Login(username, password string) (string, error) {
	var user model.User
	err := a.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", model.NewError(model.ErrAuthentication, "invalid username or password", nil)
	}
	if err != nil {
		return "", model.NewPersistenceError("failed to load user", err)
	}
	if !user.CheckPassword(password) {
		return "", model.NewError(model.ErrAuthentication, "invalid username or password", nil)
	}
	return a.GenerateToken(&user)
}

// Guest mints an anonymous session backed by a throwaway account, the way
// the original app signs users in anonymously.
func (a *AuthService) Guest() (string, error) {
	uid := uuid.NewString()
	user := model.User{
		UID:      uid,
		Username: "guest-" + uid[:8],
		Guest:    true,
	}
	if err := a.db.Create(&user).Error; err != nil {
		return "", model.NewPersistenceError("failed to create guest user", err)
	}
	return a.GenerateToken(&user)
}

// GenerateToken signs a session token for the user.
func (a *AuthService) GenerateToken(user *model.User) (string, error) {
	claims := Claims{
		UID:      user.UID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.secret))
	if err != nil {
		return "", model.NewError(model.ErrInternal, "failed to sign token", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token.
func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.secret), nil
	})
	if err != nil {
		return nil, model.NewError(model.ErrAuthentication, "invalid token", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, model.NewError(model.ErrAuthentication, "invalid token claims", nil)
	}
	return claims, nil
}
