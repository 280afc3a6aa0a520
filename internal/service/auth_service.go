package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"eight_sleep_local/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL = time.Hour
	tokenTypeBearer = "Bearer"
)

// Domain errors for auth flows.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
)

// Token is a signed access token and the moment it stops being accepted.
type Token struct {
	AccessToken string    `json:"token"`
	TokenType   string    `json:"token_type"`
	Username    string    `json:"username"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Identity is the user a valid token was issued to.
type Identity struct {
	UserID   int
	Username string
}

// AuthService handles user auth logic
type AuthService struct {
	authRepo   repository.Authorization
	signingKey []byte
	tokenTTL   time.Duration
}

func NewAuthService(repo repository.Authorization, signingKey string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{authRepo: repo, signingKey: []byte(signingKey), tokenTTL: tokenTTL}
}

// SignUp hashes password and creates a new user
func (s *AuthService) SignUp(username, password string) (int, error) {
	username = strings.TrimSpace(username)
	hash, err := HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("invalid password: %w", err)
	}
	return s.authRepo.Create(username, hash)
}

// Claims carries the username in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// GenerateToken validates credentials and returns a token signed with the configured key.
func (s *AuthService) GenerateToken(username, password string) (Token, error) {
	u, err := s.authRepo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return Token{}, err
	}
	if u == nil {
		return Token{}, ErrUserNotFound
	}

	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return Token{}, ErrInvalidPassword
	}

	return s.issueToken(u.ID, u.Username)
}

// ParseToken verifies the signature and expiry and returns who the token belongs to.
func (s *AuthService) ParseToken(accessToken string) (Identity, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: claims.UserID, Username: claims.Subject}, nil
}

// HashPassword returns the bcrypt hash used for configured users and sign-ups.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// helper: issue a signed JWT for a user
func (s *AuthService) issueToken(userID int, username string) (Token, error) {
	now := time.Now()
	expires := now.Add(s.tokenTTL).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   username,
		},
		UserID: userID,
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: signed, TokenType: tokenTypeBearer, Username: username, ExpiresAt: expires.UTC()}, nil
}
