package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	SMTP       SMTPConfig
	Twilio     TwilioConfig
	Google     GoogleConfig
	Cloudinary CloudinaryConfig
	Admin      AdminConfig
}

type AppConfig struct {
	Port string
	Env  string
	// PublicURL is the externally reachable base URL, used to reconstruct
	// the webhook URL for Twilio signature validation.
	PublicURL string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type TwilioConfig struct {
	AccountSID      string
	AuthToken       string
	WhatsAppFrom    string
	ValidateWebhook bool
}

type GoogleConfig struct {
	ClientID string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type AdminConfig struct {
	// Secret gates admin bootstrap registration.
	Secret string
	// TempTokenExpiry bounds the window between password login and OTP verify.
	TempTokenExpiry time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// .env is optional in containerized deployments, env vars win anyway
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 24 * time.Hour
	}

	refreshExpiry, err := time.ParseDuration(viper.GetString("JWT_REFRESH_EXPIRY"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	tempTokenExpiry, err := time.ParseDuration(viper.GetString("ADMIN_TEMP_TOKEN_EXPIRY"))
	if err != nil {
		tempTokenExpiry = 10 * time.Minute
	}

	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("TWILIO_VALIDATE_WEBHOOK", true)

	config := &Config{
		App: AppConfig{
			Port:      viper.GetString("APP_PORT"),
			Env:       viper.GetString("APP_ENV"),
			PublicURL: viper.GetString("APP_PUBLIC_URL"),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("EMAIL_USER"),
			Password: viper.GetString("EMAIL_PASS"),
			From:     viper.GetString("EMAIL_FROM"),
		},
		Twilio: TwilioConfig{
			AccountSID:      viper.GetString("TWILIO_SID"),
			AuthToken:       viper.GetString("TWILIO_AUTH"),
			WhatsAppFrom:    viper.GetString("TWILIO_WHATSAPP_FROM"),
			ValidateWebhook: viper.GetBool("TWILIO_VALIDATE_WEBHOOK"),
		},
		Google: GoogleConfig{
			ClientID: viper.GetString("GOOGLE_CLIENT_ID"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: viper.GetString("CLOUDINARY_CLOUD_NAME"),
			APIKey:    viper.GetString("CLOUDINARY_API_KEY"),
			APISecret: viper.GetString("CLOUDINARY_API_SECRET"),
		},
		Admin: AdminConfig{
			Secret:          viper.GetString("ADMIN_SECRET"),
			TempTokenExpiry: tempTokenExpiry,
		},
	}

	if config.SMTP.From == "" {
		config.SMTP.From = config.SMTP.User
	}

	return config, nil
}
