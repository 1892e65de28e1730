package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"fixit-server/internal/converter"
	"fixit-server/internal/delivery/dto"
	"fixit-server/internal/domain/entity"
	"fixit-server/internal/domain/repository"
	"fixit-server/internal/gateway/googleauth"
	"fixit-server/internal/gateway/mailer"
	"fixit-server/internal/service"
	"fixit-server/pkg/jwt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrUserNotFound       = errors.New("user not found")
	ErrGoogleOnlyAccount  = errors.New("account uses google sign-in")
	ErrInvalidGoogleToken = errors.New("invalid google token")
)

// OTP scope for user password resets. Provider email verification and
// admin login use their own scopes so codes can never cross flows.
const otpScopePasswordReset = "password-reset"

type AuthUsecase interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.TokenResponse, error)
	Signin(ctx context.Context, req *dto.SigninRequest) (*dto.TokenResponse, error)
	GoogleLogin(ctx context.Context, req *dto.GoogleLoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, accessTokenID string) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)

	SendPasswordResetOTP(ctx context.Context, req *dto.SendOTPRequest) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error

	// UpdateProfile changes the display name and/or avatar; either part may
	// be absent.
	UpdateProfile(ctx context.Context, userID uuid.UUID, name string, avatar io.Reader) (*dto.UserResponse, error)

	// IsTokenValid backs the auth middleware's allow-list check.
	IsTokenValid(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) (bool, error)
}

type authUsecase struct {
	db             *gorm.DB
	log            *logrus.Logger
	userRepo       repository.UserRepository
	jwtService     *jwt.JWTService
	redisClient    *redis.Client
	googleVerifier googleauth.Verifier
	otpService     *service.OTPService
	mailSender     mailer.Sender
	storage        Uploader
}

func NewAuthUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	jwtService *jwt.JWTService,
	redisClient *redis.Client,
	googleVerifier googleauth.Verifier,
	otpService *service.OTPService,
	mailSender mailer.Sender,
	storage Uploader,
) AuthUsecase {
	return &authUsecase{
		db:             db,
		log:            log,
		userRepo:       userRepo,
		jwtService:     jwtService,
		redisClient:    redisClient,
		googleVerifier: googleVerifier,
		otpService:     otpService,
		mailSender:     mailSender,
		storage:        storage,
	}
}

func (u *authUsecase) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.TokenResponse, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	user := &entity.User{
		Email:    strings.ToLower(req.Email),
		Password: string(hashedPassword),
		Name:     req.Name,
	}

	if err := u.userRepo.Create(u.db.WithContext(ctx), user); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create user: %+v", err)
		return nil, err
	}

	u.log.Infof("User signed up: %s", user.Email)
	return u.issueTokens(ctx, user)
}

func (u *authUsecase) Signin(ctx context.Context, req *dto.SigninRequest) (*dto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(u.db.WithContext(ctx), strings.ToLower(req.Email))
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if !user.HasPassword() {
		return nil, ErrGoogleOnlyAccount
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u.issueTokens(ctx, user)
}

// GoogleLogin verifies the ID token, then signs in an existing account or
// provisions a password-less one. An existing password account is linked to
// the Google subject on first Google sign-in with the same email.
func (u *authUsecase) GoogleLogin(ctx context.Context, req *dto.GoogleLoginRequest) (*dto.TokenResponse, error) {
	profile, err := u.googleVerifier.Verify(ctx, req.Token)
	if err != nil {
		u.log.Warnf("Failed google token verification: %+v", err)
		return nil, ErrInvalidGoogleToken
	}

	email := strings.ToLower(profile.Email)
	user, err := u.userRepo.FindByEmail(u.db.WithContext(ctx), email)
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, err
	}

	if user == nil {
		user = &entity.User{
			Email:      email,
			Name:       profile.Name,
			GoogleID:   profile.Subject,
			ProfilePic: profile.Picture,
		}
		if err := u.userRepo.Create(u.db.WithContext(ctx), user); err != nil {
			if isDuplicateKeyError(err, "email") {
				return nil, ErrEmailAlreadyExists
			}
			u.log.Warnf("Failed to create google user: %+v", err)
			return nil, err
		}
		u.log.Infof("User provisioned via google: %s", user.Email)
	} else if user.GoogleID == "" {
		user.GoogleID = profile.Subject
		if user.ProfilePic == "" {
			user.ProfilePic = profile.Picture
		}
		if err := u.userRepo.Update(u.db.WithContext(ctx), user); err != nil {
			u.log.Warnf("Failed to link google account: %+v", err)
			return nil, err
		}
	}

	return u.issueTokens(ctx, user)
}

func (u *authUsecase) Logout(ctx context.Context, userID uuid.UUID, accessTokenID string) error {
	keys := []string{
		accessTokenKey(userID, accessTokenID),
	}

	// Refresh tokens for the session are not tracked against the access
	// token id, so logout revokes all of the user's refresh tokens.
	refreshKeys, err := u.redisClient.Keys(ctx, fmt.Sprintf("refresh_token:%s:*", userID.String())).Result()
	if err != nil {
		u.log.Warnf("Failed to list refresh tokens: %+v", err)
		return err
	}
	keys = append(keys, refreshKeys...)

	if err := u.redisClient.Del(ctx, keys...).Err(); err != nil {
		u.log.Warnf("Failed to revoke tokens: %+v", err)
		return err
	}
	return nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != jwt.RefreshToken {
		return nil, ErrInvalidToken
	}

	refreshKey := refreshTokenKey(claims.UserID, claims.TokenID)
	exists, err := u.redisClient.Exists(ctx, refreshKey).Result()
	if err != nil {
		u.log.Warnf("Failed to check refresh token in Redis: %+v", err)
		return nil, err
	}
	if exists == 0 {
		return nil, ErrTokenRevoked
	}

	// Rotation: the old refresh token dies the moment it is redeemed.
	if err := u.redisClient.Del(ctx, refreshKey).Err(); err != nil {
		u.log.Warnf("Failed to delete old refresh token: %+v", err)
		return nil, err
	}

	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return u.issueTokens(ctx, user)
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}

// SendPasswordResetOTP always succeeds from the caller's point of view when
// the email is unknown, so the endpoint cannot be used to probe accounts.
func (u *authUsecase) SendPasswordResetOTP(ctx context.Context, req *dto.SendOTPRequest) error {
	email := strings.ToLower(req.Email)
	user, err := u.userRepo.FindByEmail(u.db.WithContext(ctx), email)
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return err
	}
	if user == nil {
		u.log.Infof("Password reset requested for unknown email")
		return nil
	}

	code, err := u.otpService.Generate(ctx, otpScopePasswordReset, email)
	if err != nil {
		return err
	}

	if err := u.mailSender.Send(email, "Password Reset Code", mailer.OTPBody(code)); err != nil {
		u.log.Warnf("Failed to send reset mail: %+v", err)
		return err
	}
	return nil
}

func (u *authUsecase) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	email := strings.ToLower(req.Email)
	if err := u.otpService.VerifyAndConsume(ctx, otpScopePasswordReset, email, req.OTP); err != nil {
		return err
	}

	user, err := u.userRepo.FindByEmail(u.db.WithContext(ctx), email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return err
	}

	if err := u.userRepo.UpdatePassword(u.db.WithContext(ctx), user.ID, string(hashedPassword)); err != nil {
		u.log.Warnf("Failed to update password: %+v", err)
		return err
	}

	// Every existing session dies with the old password.
	if err := u.revokeAllUserTokens(ctx, user.ID); err != nil {
		u.log.Warnf("Failed to revoke sessions after reset: %+v", err)
	}

	u.log.Infof("Password reset completed for user %s", user.ID)
	return nil
}

func (u *authUsecase) UpdateProfile(ctx context.Context, userID uuid.UUID, name string, avatar io.Reader) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if name != "" {
		user.Name = name
	}
	if avatar != nil {
		url, err := u.storage.Upload(ctx, avatar, "users/avatars")
		if err != nil {
			u.log.Warnf("Failed avatar upload for user %s: %+v", userID, err)
			return nil, err
		}
		user.ProfilePic = url
	}

	if err := u.userRepo.Update(u.db.WithContext(ctx), user); err != nil {
		u.log.Warnf("Failed to update user %s: %+v", userID, err)
		return nil, err
	}

	return converter.UserToResponse(user), nil
}

func (u *authUsecase) IsTokenValid(ctx context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) (bool, error) {
	var key string
	if tokenType == jwt.AccessToken {
		key = accessTokenKey(userID, tokenID)
	} else {
		key = refreshTokenKey(userID, tokenID)
	}

	exists, err := u.redisClient.Exists(ctx, key).Result()
	if err != nil {
		u.log.Warnf("Failed to check token validity: %+v", err)
		return false, err
	}
	return exists > 0, nil
}

// issueTokens generates an access/refresh pair and registers both in the
// Redis allow-list under the user's id.
func (u *authUsecase) issueTokens(ctx context.Context, user *entity.User) (*dto.TokenResponse, error) {
	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(user.ID, user.Email, jwt.RoleUser)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(user.ID, user.Email, jwt.RoleUser)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	if err := u.redisClient.Set(ctx, accessTokenKey(user.ID, accessTokenID), "valid", u.jwtService.GetAccessExpiry()).Err(); err != nil {
		u.log.Warnf("Failed to store access token in Redis: %+v", err)
		return nil, err
	}
	if err := u.redisClient.Set(ctx, refreshTokenKey(user.ID, refreshTokenID), "valid", u.jwtService.GetRefreshExpiry()).Err(); err != nil {
		u.log.Warnf("Failed to store refresh token in Redis: %+v", err)
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
		User:         converter.UserToResponse(user),
	}, nil
}

func (u *authUsecase) revokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	for _, pattern := range []string{
		fmt.Sprintf("access_token:%s:*", userID.String()),
		fmt.Sprintf("refresh_token:%s:*", userID.String()),
	} {
		keys, err := u.redisClient.Keys(ctx, pattern).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := u.redisClient.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

func accessTokenKey(userID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("access_token:%s:%s", userID.String(), tokenID)
}

func refreshTokenKey(userID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("refresh_token:%s:%s", userID.String(), tokenID)
}

// isDuplicateKeyError checks for a PostgreSQL unique constraint violation
// on the named constraint.
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}
