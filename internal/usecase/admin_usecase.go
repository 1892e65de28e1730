package usecase

import (
	"context"
	"errors"
	"strings"

	"fixit-server/config"
	"fixit-server/internal/converter"
	"fixit-server/internal/delivery/dto"
	"fixit-server/internal/domain/entity"
	"fixit-server/internal/domain/repository"
	"fixit-server/internal/gateway/mailer"
	"fixit-server/internal/service"
	"fixit-server/pkg/jwt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidAdminSecret = errors.New("invalid admin registration secret")
	ErrAdminNotFound      = errors.New("admin not found")
)

const otpScopeAdminLogin = "admin-login"

type AdminUsecase interface {
	Register(ctx context.Context, req *dto.AdminRegisterRequest) error

	// Login checks the password and mails an OTP; the returned temp token
	// plus that OTP are exchanged in VerifyOTP for real tokens.
	Login(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error)
	VerifyOTP(ctx context.Context, req *dto.AdminVerifyOTPRequest) (*dto.TokenResponse, error)

	ListProviders(ctx context.Context) (*dto.ProviderListResponse, error)
	ApproveProvider(ctx context.Context, providerID uuid.UUID, approved bool) error
	SetMembershipPaid(ctx context.Context, providerID uuid.UUID, paid bool) error
}

type adminUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	cfg          config.AdminConfig
	adminRepo    repository.AdminRepository
	providerRepo repository.ProviderRepository
	jwtService   *jwt.JWTService
	redisClient  *redis.Client
	otpService   *service.OTPService
	mailSender   mailer.Sender
}

func NewAdminUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	cfg config.AdminConfig,
	adminRepo repository.AdminRepository,
	providerRepo repository.ProviderRepository,
	jwtService *jwt.JWTService,
	redisClient *redis.Client,
	otpService *service.OTPService,
	mailSender mailer.Sender,
) AdminUsecase {
	return &adminUsecase{
		db:           db,
		log:          log,
		cfg:          cfg,
		adminRepo:    adminRepo,
		providerRepo: providerRepo,
		jwtService:   jwtService,
		redisClient:  redisClient,
		otpService:   otpService,
		mailSender:   mailSender,
	}
}

func (u *adminUsecase) Register(ctx context.Context, req *dto.AdminRegisterRequest) error {
	if u.cfg.Secret == "" || req.Secret != u.cfg.Secret {
		return ErrInvalidAdminSecret
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return err
	}

	admin := &entity.Admin{
		Email:    strings.ToLower(req.Email),
		Password: string(hashedPassword),
	}

	if err := u.adminRepo.Create(u.db.WithContext(ctx), admin); err != nil {
		if isDuplicateKeyError(err, "email") {
			return ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create admin: %+v", err)
		return err
	}

	u.log.Infof("Admin registered: %s", admin.Email)
	return nil
}

func (u *adminUsecase) Login(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error) {
	admin, err := u.adminRepo.FindByEmail(u.db.WithContext(ctx), strings.ToLower(req.Email))
	if err != nil {
		u.log.Warnf("Failed to find admin by email: %+v", err)
		return nil, err
	}
	if admin == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	code, err := u.otpService.Generate(ctx, otpScopeAdminLogin, admin.Email)
	if err != nil {
		return nil, err
	}
	if err := u.mailSender.Send(admin.Email, "Admin Login Code", mailer.OTPBody(code)); err != nil {
		u.log.Warnf("Failed to send admin OTP mail: %+v", err)
		return nil, err
	}

	tempToken, _, err := u.jwtService.GenerateTempToken(admin.ID, admin.Email, u.cfg.TempTokenExpiry)
	if err != nil {
		u.log.Warnf("Failed to generate temp token: %+v", err)
		return nil, err
	}

	u.log.Infof("Admin password step passed, OTP mailed: %s", admin.Email)
	return &dto.AdminLoginResponse{TempToken: tempToken}, nil
}

func (u *adminUsecase) VerifyOTP(ctx context.Context, req *dto.AdminVerifyOTPRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(req.TempToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != jwt.TempToken {
		return nil, ErrInvalidToken
	}

	if err := u.otpService.VerifyAndConsume(ctx, otpScopeAdminLogin, claims.Email, req.OTP); err != nil {
		return nil, err
	}

	admin, err := u.adminRepo.FindByID(u.db.WithContext(ctx), claims.UserID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrAdminNotFound
	}

	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(admin.ID, admin.Email, jwt.RoleAdmin)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}
	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(admin.ID, admin.Email, jwt.RoleAdmin)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	if err := u.redisClient.Set(ctx, accessTokenKey(admin.ID, accessTokenID), "valid", u.jwtService.GetAccessExpiry()).Err(); err != nil {
		u.log.Warnf("Failed to store access token in Redis: %+v", err)
		return nil, err
	}
	if err := u.redisClient.Set(ctx, refreshTokenKey(admin.ID, refreshTokenID), "valid", u.jwtService.GetRefreshExpiry()).Err(); err != nil {
		u.log.Warnf("Failed to store refresh token in Redis: %+v", err)
		return nil, err
	}

	u.log.Infof("Admin logged in: %s", admin.Email)
	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

func (u *adminUsecase) ListProviders(ctx context.Context) (*dto.ProviderListResponse, error) {
	providers, err := u.providerRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to list providers: %+v", err)
		return nil, err
	}
	return &dto.ProviderListResponse{
		Providers: converter.ProvidersToResponses(providers),
		Total:     len(providers),
	}, nil
}

func (u *adminUsecase) ApproveProvider(ctx context.Context, providerID uuid.UUID, approved bool) error {
	rows, err := u.providerRepo.SetApproved(u.db.WithContext(ctx), providerID, approved)
	if err != nil {
		u.log.Warnf("Failed to set approval for provider %s: %+v", providerID, err)
		return err
	}
	if rows == 0 {
		return ErrProviderNotFound
	}
	u.log.Infof("Provider %s approval set to %t", providerID, approved)
	return nil
}

func (u *adminUsecase) SetMembershipPaid(ctx context.Context, providerID uuid.UUID, paid bool) error {
	rows, err := u.providerRepo.SetMembershipPaid(u.db.WithContext(ctx), providerID, paid)
	if err != nil {
		u.log.Warnf("Failed to set membership for provider %s: %+v", providerID, err)
		return err
	}
	if rows == 0 {
		return ErrProviderNotFound
	}
	u.log.Infof("Provider %s membership paid set to %t", providerID, paid)
	return nil
}
