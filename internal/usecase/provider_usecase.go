package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"fixit-server/internal/converter"
	"fixit-server/internal/delivery/dto"
	"fixit-server/internal/domain/entity"
	"fixit-server/internal/domain/repository"
	"fixit-server/internal/gateway/mailer"
	"fixit-server/internal/service"
	"fixit-server/pkg/phone"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrPhoneAlreadyRegistered = errors.New("phone number already registered")
	ErrProviderNotFound       = errors.New("provider not found")
	ErrEmailNotVerifiable     = errors.New("no provider pending verification for this email")
)

const otpScopeProviderVerify = "provider-verify"

// RegisterProviderFiles carries the uploaded documents from the multipart
// form. Photo is required by the handler; the id documents may be nil.
type RegisterProviderFiles struct {
	Photo   io.Reader
	Aadhaar io.Reader
	Pancard io.Reader
}

type ProviderUsecase interface {
	Register(ctx context.Context, req *dto.RegisterProviderRequest, files *RegisterProviderFiles) (*dto.ProviderResponse, error)
	VerifyEmail(ctx context.Context, req *dto.VerifyOTPRequest) error
	ResendVerificationOTP(ctx context.Context, req *dto.SendOTPRequest) error

	GetByID(ctx context.Context, id uuid.UUID) (*dto.ProviderResponse, error)
	Search(ctx context.Context, req *dto.SearchProvidersRequest) (*dto.ProviderListResponse, error)

	// SetPresenceByPhone handles the START/STOP webhook commands; the
	// sender's phone is the provider's identity.
	SetPresenceByPhone(ctx context.Context, fromPhone string, online bool) (*entity.Provider, error)
}

// Uploader is the subset of the storage gateway the usecase needs.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, folder string) (string, error)
}

type providerUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	providerRepo repository.ProviderRepository
	storage      Uploader
	otpService   *service.OTPService
	mailSender   mailer.Sender
}

func NewProviderUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	providerRepo repository.ProviderRepository,
	storage Uploader,
	otpService *service.OTPService,
	mailSender mailer.Sender,
) ProviderUsecase {
	return &providerUsecase{
		db:           db,
		log:          log,
		providerRepo: providerRepo,
		storage:      storage,
		otpService:   otpService,
		mailSender:   mailSender,
	}
}

// Register uploads the documents first, then inserts the provider row. A
// failed insert leaves orphan uploads behind, which is acceptable: the
// uploads are idempotent to retry and Cloudinary folders are periodically
// reviewed by the admin anyway.
func (u *providerUsecase) Register(ctx context.Context, req *dto.RegisterProviderRequest, files *RegisterProviderFiles) (*dto.ProviderResponse, error) {
	normalizedPhone := phone.Normalize(req.Phone)

	existing, err := u.providerRepo.FindByPhone(u.db.WithContext(ctx), normalizedPhone)
	if err != nil {
		u.log.Warnf("Failed provider phone lookup: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrPhoneAlreadyRegistered
	}

	provider := &entity.Provider{
		Name:       req.Name,
		Email:      strings.ToLower(req.Email),
		Phone:      normalizedPhone,
		Service:    strings.ToLower(req.Service),
		Experience: req.Experience,
		Location:   req.Location,
		LastSeen:   time.Now().UTC(),
	}

	if files != nil {
		if provider.PhotoURL, err = u.uploadIfPresent(ctx, files.Photo, "providers/photos"); err != nil {
			return nil, err
		}
		if provider.AadhaarURL, err = u.uploadIfPresent(ctx, files.Aadhaar, "providers/aadhaar"); err != nil {
			return nil, err
		}
		if provider.PancardURL, err = u.uploadIfPresent(ctx, files.Pancard, "providers/pancard"); err != nil {
			return nil, err
		}
	}

	if err := u.providerRepo.Create(u.db.WithContext(ctx), provider); err != nil {
		if isDuplicateKeyError(err, "phone") {
			return nil, ErrPhoneAlreadyRegistered
		}
		u.log.Warnf("Failed to create provider: %+v", err)
		return nil, err
	}

	if err := u.sendVerificationMail(ctx, provider.Email); err != nil {
		// Registration stands; the provider can request a new code.
		u.log.Warnf("Failed to send verification mail to provider %s: %+v", provider.ID, err)
	}

	u.log.Infof("Provider registered: id=%s, service=%s", provider.ID, provider.Service)
	return converter.ProviderToResponse(provider), nil
}

func (u *providerUsecase) VerifyEmail(ctx context.Context, req *dto.VerifyOTPRequest) error {
	email := strings.ToLower(req.Email)
	if err := u.otpService.VerifyAndConsume(ctx, otpScopeProviderVerify, email, req.OTP); err != nil {
		return err
	}

	rows, err := u.providerRepo.SetEmailVerified(u.db.WithContext(ctx), email)
	if err != nil {
		u.log.Warnf("Failed to mark provider email verified: %+v", err)
		return err
	}
	if rows == 0 {
		return ErrEmailNotVerifiable
	}

	u.log.Infof("Provider email verified: %s", email)
	return nil
}

func (u *providerUsecase) ResendVerificationOTP(ctx context.Context, req *dto.SendOTPRequest) error {
	return u.sendVerificationMail(ctx, strings.ToLower(req.Email))
}

func (u *providerUsecase) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProviderResponse, error) {
	provider, err := u.providerRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find provider %s: %+v", id, err)
		return nil, err
	}
	if provider == nil {
		return nil, ErrProviderNotFound
	}
	return converter.ProviderToResponse(provider), nil
}

func (u *providerUsecase) Search(ctx context.Context, req *dto.SearchProvidersRequest) (*dto.ProviderListResponse, error) {
	filter := repository.ProviderSearchFilter{
		Service:    strings.ToLower(req.Service),
		Location:   req.Location,
		OnlineOnly: req.OnlineOnly,
	}

	providers, err := u.providerRepo.Search(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed provider search: %+v", err)
		return nil, err
	}

	return &dto.ProviderListResponse{
		Providers: converter.ProvidersToResponses(providers),
		Total:     len(providers),
	}, nil
}

func (u *providerUsecase) SetPresenceByPhone(ctx context.Context, fromPhone string, online bool) (*entity.Provider, error) {
	provider, err := u.providerRepo.FindByPhone(u.db.WithContext(ctx), phone.Normalize(fromPhone))
	if err != nil {
		u.log.Warnf("Failed provider lookup for presence change: %+v", err)
		return nil, err
	}
	if provider == nil {
		return nil, ErrProviderNotRegistered
	}

	now := time.Now().UTC()
	if err := u.providerRepo.SetOnline(u.db.WithContext(ctx), provider.ID, online, now); err != nil {
		u.log.Warnf("Failed to set presence for provider %s: %+v", provider.ID, err)
		return nil, err
	}

	provider.IsOnline = online
	provider.LastSeen = now
	u.log.Infof("Provider %s presence: online=%t", provider.ID, online)
	return provider, nil
}

func (u *providerUsecase) uploadIfPresent(ctx context.Context, file io.Reader, folder string) (string, error) {
	if file == nil {
		return "", nil
	}
	url, err := u.storage.Upload(ctx, file, folder)
	if err != nil {
		u.log.Warnf("Failed upload to %s: %+v", folder, err)
		return "", err
	}
	return url, nil
}

func (u *providerUsecase) sendVerificationMail(ctx context.Context, email string) error {
	code, err := u.otpService.Generate(ctx, otpScopeProviderVerify, email)
	if err != nil {
		return err
	}
	return u.mailSender.Send(email, "Verify Your Email", mailer.OTPBody(code))
}
