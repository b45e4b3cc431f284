package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"modmarket/internal/model"
	"modmarket/internal/monitor"
	"modmarket/internal/repository"
	"modmarket/internal/utils"
	"modmarket/pkg/log"
	pkgutils "modmarket/pkg/utils"
)

// RegisterRequest register request
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6,max=64"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// LoginRequest login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse token response
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// AuthService authentication service interface
type AuthService interface {
	// Register user
	Register(ctx context.Context, req *RegisterRequest) (*model.User, error)

	// Login user
	Login(ctx context.Context, req *LoginRequest, ip string) (*TokenResponse, error)

	// Logout user
	Logout(ctx context.Context, userID uint64, token string) error

	// Validate token
	ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)

	// Refresh token
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

// authService authentication service implementation
type authService struct {
	userRepo     repository.UserRepository
	jwtManager   *utils.JWTManager
	redis        *redis.Client
	accessExpire time.Duration
}

// NewAuthService creates an authentication service
func NewAuthService(
	userRepo repository.UserRepository,
	jwtManager *utils.JWTManager,
	redisClient *redis.Client,
	accessExpire time.Duration,
) AuthService {
	if accessExpire <= 0 {
		accessExpire = 2 * time.Hour
	}
	return &authService{
		userRepo:     userRepo,
		jwtManager:   jwtManager,
		redis:        redisClient,
		accessExpire: accessExpire,
	}
}

// Register registers a user
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*model.User, error) {
	log.Infof("user register: %s", req.Username)

	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		log.Errorf("check username failed: %v", err)
		monitor.RecordUserRegistration(false)
		return nil, pkgutils.ErrInternalError
	}
	if exists {
		monitor.RecordUserRegistration(false)
		return nil, pkgutils.ErrUserExists
	}

	salt, err := generateSalt()
	if err != nil {
		log.Errorf("generate salt failed: %v", err)
		monitor.RecordUserRegistration(false)
		return nil, pkgutils.ErrInternalError
	}

	passwordHash, err := hashPassword(req.Password + salt)
	if err != nil {
		log.Errorf("hash password failed: %v", err)
		monitor.RecordUserRegistration(false)
		return nil, pkgutils.ErrInternalError
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: passwordHash,
		Salt:         salt,
		NotifyEmail:  true,
	}
	if req.Email != "" {
		user.Email = &req.Email
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		log.Errorf("create user failed: %v", err)
		monitor.RecordUserRegistration(false)
		return nil, pkgutils.ErrInternalError
	}

	monitor.RecordUserRegistration(true)
	log.Infof("user register success: id=%d username=%s", user.ID, user.Username)
	return user, nil
}

// Login logs in a user
func (s *authService) Login(ctx context.Context, req *LoginRequest, ip string) (*TokenResponse, error) {
	log.Infof("user login: %s ip=%s", req.Username, ip)

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		monitor.RecordUserLogin(false)
		return nil, pkgutils.NewError(pkgutils.CodeUnauthorized, "username or password incorrect")
	}

	if user.IsBanned {
		monitor.RecordUserLogin(false)
		return nil, pkgutils.ErrUserBanned
	}

	if err := s.checkLoginAttempts(ctx, user.ID); err != nil {
		monitor.RecordUserLogin(false)
		return nil, err
	}

	if !verifyPassword(req.Password+user.Salt, user.PasswordHash) {
		s.recordLoginFailure(ctx, user.ID)
		monitor.RecordUserLogin(false)
		return nil, pkgutils.NewError(pkgutils.CodeUnauthorized, "username or password incorrect")
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		log.Errorf("generate access token failed: %v", err)
		monitor.RecordUserLogin(false)
		return nil, pkgutils.ErrInternalError
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		log.Errorf("generate refresh token failed: %v", err)
		monitor.RecordUserLogin(false)
		return nil, pkgutils.ErrInternalError
	}

	tokenKey := fmt.Sprintf("auth:token:%d", user.ID)
	s.redis.Set(ctx, tokenKey, accessToken, s.accessExpire)

	s.clearLoginFailures(ctx, user.ID)
	s.userRepo.TouchActivity(ctx, user.ID, time.Now())

	monitor.RecordUserLogin(true)
	log.Infof("user login success: id=%d username=%s", user.ID, user.Username)

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessExpire.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// Logout logs out a user
func (s *authService) Logout(ctx context.Context, userID uint64, token string) error {
	tokenKey := fmt.Sprintf("auth:token:%d", userID)
	s.redis.Del(ctx, tokenKey)

	// Blacklist the token until it would have expired anyway
	blacklistKey := fmt.Sprintf("auth:blacklist:%s", token)
	s.redis.Set(ctx, blacklistKey, "1", s.accessExpire)

	log.Infof("user logout: id=%d", userID)
	return nil
}

// ValidateToken validates a token
func (s *authService) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
	blacklistKey := fmt.Sprintf("auth:blacklist:%s", token)
	exists, _ := s.redis.Exists(ctx, blacklistKey).Result()
	if exists > 0 {
		return nil, errors.New("token invalid")
	}

	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	// Banned after issuing? Reject regardless of signature validity.
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, errors.New("token invalid")
	}
	if user.IsBanned {
		return nil, pkgutils.ErrUserBanned
	}

	return claims, nil
}

// RefreshToken refreshes a token
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, pkgutils.WrapError(err, pkgutils.CodeUnauthorized, "refresh token invalid")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, pkgutils.WrapError(err, pkgutils.CodeUnauthorized, "refresh token invalid")
	}
	if user.IsBanned {
		return nil, pkgutils.ErrUserBanned
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, pkgutils.ErrInternalError
	}

	tokenKey := fmt.Sprintf("auth:token:%d", user.ID)
	s.redis.Set(ctx, tokenKey, accessToken, s.accessExpire)

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessExpire.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// Helper methods

func generateSalt() (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return hex.EncodeToString(salt), nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// checkLoginAttempts rejects a user with too many recent failures
func (s *authService) checkLoginAttempts(ctx context.Context, userID uint64) error {
	key := fmt.Sprintf("auth:login_attempts:%d", userID)
	attempts, _ := s.redis.Get(ctx, key).Int()

	if attempts >= 5 {
		return pkgutils.NewError(pkgutils.CodeUnauthorized,
			"login failed too many times, please try again in 30 minutes")
	}
	return nil
}

func (s *authService) recordLoginFailure(ctx context.Context, userID uint64) {
	key := fmt.Sprintf("auth:login_attempts:%d", userID)
	s.redis.Incr(ctx, key)
	s.redis.Expire(ctx, key, 30*time.Minute)
}

func (s *authService) clearLoginFailures(ctx context.Context, userID uint64) {
	key := fmt.Sprintf("auth:login_attempts:%d", userID)
	s.redis.Del(ctx, key)
}
