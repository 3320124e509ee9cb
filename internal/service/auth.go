package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

type AuthService interface {
	// IssueToken exchanges a business id and owner token for a signed JWT.
	IssueToken(ctx context.Context, req models.TokenRequest) (*models.TokenResponse, error)
	ParseToken(tokenString string) (*models.Claims, error)
}

type authService struct {
	businesses repository.BusinessRepository
	secret     []byte
	ttl        time.Duration
	logger     *zap.Logger
}

func NewAuthService(businesses repository.BusinessRepository, secret string, ttl time.Duration, logger *zap.Logger) AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &authService{
		businesses: businesses,
		secret:     []byte(secret),
		ttl:        ttl,
		logger:     logger,
	}
}

func (s *authService) IssueToken(ctx context.Context, req models.TokenRequest) (*models.TokenResponse, error) {
	if req.BusinessID == "" || req.OwnerToken == "" {
		return nil, apperr.Validation("business_id and owner_token are required")
	}

	business, err := s.businesses.GetByID(ctx, req.BusinessID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !verifyOwnerToken(business.OwnerTokenHash, req.OwnerToken) {
		s.logger.Warn("Rejected owner token", zap.String("business_id", business.ID))
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.ttl)
	claims := &models.Claims{
		BusinessID: business.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   business.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to generate JWT token", zap.Error(err))
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("Issued business token", zap.String("business_id", business.ID))
	return &models.TokenResponse{Token: signed, ExpiresAt: expiresAt}, nil
}

func (s *authService) ParseToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.BusinessID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// newOwnerToken returns a random token and its argon2id hash.
func newOwnerToken() (token, hash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(raw)
	hash, err = hashOwnerToken(token)
	return token, hash, err
}

// hashOwnerToken encodes as $argon2id$v=19$m=65536,t=1,p=4$SALT$HASH.
func hashOwnerToken(token string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(token), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

func verifyOwnerToken(encoded, token string) bool {
	sections := strings.Split(strings.TrimPrefix(encoded, "$"), "$")
	if len(sections) != 5 || sections[0] != "argon2id" {
		return false
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(sections[2], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(sections[3])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(sections[4])
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(token), salt, t, m, p, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
