package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	ErrOTPNotFound = errors.New("otp not found or expired")
	ErrOTPMismatch = errors.New("otp does not match")
)

const (
	otpKeyPrefix = "otp:"

	// OTPTTL is how long a code stays valid.
	OTPTTL = 5 * time.Minute
)

// verifyConsumeScript compares and deletes in one atomic step, so a code
// can never be redeemed twice even by concurrent verify calls.
//
// Returns: -1 = no code stored, 0 = mismatch (code kept), 1 = consumed.
var verifyConsumeScript = redis.NewScript(`
	local stored = redis.call('GET', KEYS[1])
	if not stored then
		return -1
	end
	if stored ~= ARGV[1] then
		return 0
	end
	redis.call('DEL', KEYS[1])
	return 1
`)

// OTPService keeps one-time codes in Redis with a TTL instead of process
// memory, so the server can scale horizontally and restarts don't strand
// in-flight verifications.
type OTPService struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

func NewOTPService(redisClient *redis.Client, log *logrus.Logger) *OTPService {
	return &OTPService{
		redisClient: redisClient,
		log:         log,
		ttl:         OTPTTL,
	}
}

// Generate creates a 6-digit code for (scope, email) and stores it with a
// TTL, replacing any previous code for the same key.
func (s *OTPService) Generate(ctx context.Context, scope, email string) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}

	key := otpKey(scope, email)
	if err := s.redisClient.Set(ctx, key, code, s.ttl).Err(); err != nil {
		s.log.Warnf("Failed to store OTP for %s: %+v", key, err)
		return "", err
	}

	return code, nil
}

// VerifyAndConsume checks code against the stored value and deletes it on
// match. A wrong code leaves the stored value in place until the TTL runs out.
func (s *OTPService) VerifyAndConsume(ctx context.Context, scope, email, code string) error {
	key := otpKey(scope, email)

	result, err := verifyConsumeScript.Run(ctx, s.redisClient, []string{key}, code).Int()
	if err != nil {
		s.log.Warnf("Failed OTP verify script for %s: %+v", key, err)
		return err
	}

	switch result {
	case -1:
		return ErrOTPNotFound
	case 0:
		return ErrOTPMismatch
	}
	return nil
}

func otpKey(scope, email string) string {
	return fmt.Sprintf("%s%s:%s", otpKeyPrefix, scope, email)
}

func randomCode() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(buf[:]) % 1000000
	return fmt.Sprintf("%06d", n), nil
}
