package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDev  = "dev"
	EnvTest = "test"
	EnvProd = "prod"
)

const (
	LedgerFile     = "file"
	LedgerMinIO    = "minio"
	LedgerPostgres = "postgres"
)

const (
	EmailSMTP     = "smtp"
	EmailSendGrid = "sendgrid"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	AdminKey       string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`

	FracTrackerURL    string `mapstructure:"FRACTRACKER_API_URL"`
	MockLocationsFile string `mapstructure:"MOCK_LOCATIONS_FILE"`

	GeocoderURL         string        `mapstructure:"GEOCODER_URL"`
	GeocoderUserAgent   string        `mapstructure:"GEOCODER_USER_AGENT"`
	GeocoderMinInterval time.Duration `mapstructure:"GEOCODER_MIN_INTERVAL"`
	GeocoderTimeout     time.Duration `mapstructure:"GEOCODER_TIMEOUT"`

	LedgerBackend  string `mapstructure:"LEDGER_BACKEND"`
	LedgerPath     string `mapstructure:"LEDGER_PATH"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	MinIOEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
	MinIOBucket    string `mapstructure:"MINIO_BUCKET"`
	MinIOObject    string `mapstructure:"MINIO_OBJECT"`

	EmailProvider  string `mapstructure:"EMAIL_PROVIDER"`
	SendGridAPIKey string `mapstructure:"SENDGRID_API_KEY"`
	SMTPHost       string `mapstructure:"SMTP_HOST"`
	SMTPPort       int    `mapstructure:"SMTP_PORT"`
	SMTPUsername   string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword   string `mapstructure:"SMTP_PASSWORD"`
	EmailFrom      string `mapstructure:"EMAIL_FROM"`
	EmailFromName  string `mapstructure:"EMAIL_FROM_NAME"`
	EmailCC        string `mapstructure:"EMAIL_CC"`
	EmailSubject   string `mapstructure:"EMAIL_SUBJECT"`

	AgencyEmailCO string `mapstructure:"AGENCY_EMAIL_CO"`
	AgencyEmailKY string `mapstructure:"AGENCY_EMAIL_KY"`
	AgencyEmailNE string `mapstructure:"AGENCY_EMAIL_NE"`
	AgencyEmailND string `mapstructure:"AGENCY_EMAIL_ND"`
	AgencyEmailTN string `mapstructure:"AGENCY_EMAIL_TN"`
	AgencyEmailWV string `mapstructure:"AGENCY_EMAIL_WV"`

	BrowserBin      string        `mapstructure:"BROWSER_BIN"`
	BrowserHeadless bool          `mapstructure:"BROWSER_HEADLESS"`
	ScreenshotDir   string        `mapstructure:"SCREENSHOT_DIR"`
	PageLoadTimeout time.Duration `mapstructure:"PAGE_LOAD_TIMEOUT"`
	ConfirmWait     time.Duration `mapstructure:"CONFIRM_WAIT"`

	HandlerTimeout time.Duration `mapstructure:"HANDLER_TIMEOUT"`
	SubmitWorkers  int           `mapstructure:"SUBMIT_WORKERS"`
}

// Live reports whether web forms are actually submitted. Development runs
// fill the forms and stop before the submit button.
func (c Config) Live() bool {
	return c.Env == EnvTest || c.Env == EnvProd
}

func (c Config) UseMockReports() bool {
	return c.Env == EnvTest
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Every key gets a default so that AutomaticEnv values reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDev)
	v.SetDefault("PORT", "8080")
	v.SetDefault("ADMIN_KEY", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("FRACTRACKER_API_URL", "https://api.fractracker.org/v1/data/report")
	v.SetDefault("MOCK_LOCATIONS_FILE", "testdata/mock_locations.json")

	v.SetDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_USER_AGENT", "fractracker-complaints")
	v.SetDefault("GEOCODER_MIN_INTERVAL", "1s")
	v.SetDefault("GEOCODER_TIMEOUT", "30s")

	v.SetDefault("LEDGER_BACKEND", LedgerFile)
	v.SetDefault("LEDGER_PATH", "data/submissions.csv")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_USE_SSL", true)
	v.SetDefault("MINIO_BUCKET", "fractracker-complaints")
	v.SetDefault("MINIO_OBJECT", "submissions.csv")

	v.SetDefault("EMAIL_PROVIDER", EmailSMTP)
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("EMAIL_FROM", "")
	v.SetDefault("EMAIL_FROM_NAME", "FracTracker Alliance")
	v.SetDefault("EMAIL_CC", "")
	v.SetDefault("EMAIL_SUBJECT", "Environmental Complaint")

	v.SetDefault("AGENCY_EMAIL_CO", "")
	v.SetDefault("AGENCY_EMAIL_KY", "")
	v.SetDefault("AGENCY_EMAIL_NE", "")
	v.SetDefault("AGENCY_EMAIL_ND", "")
	v.SetDefault("AGENCY_EMAIL_TN", "")
	v.SetDefault("AGENCY_EMAIL_WV", "")

	v.SetDefault("BROWSER_BIN", "")
	v.SetDefault("BROWSER_HEADLESS", true)
	v.SetDefault("SCREENSHOT_DIR", "screenshots")
	v.SetDefault("PAGE_LOAD_TIMEOUT", "30s")
	v.SetDefault("CONFIRM_WAIT", "10s")

	v.SetDefault("HANDLER_TIMEOUT", "10m")
	v.SetDefault("SUBMIT_WORKERS", 1)
}
