package mailer

import (
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"fuel-report/src/pkg/config"
)

// Security is how the SMTP connection is encrypted.
type Security string

const (
	SecuritySSL           Security = "ssl"           // implicit TLS, usually port 465
	SecurityStartTLS      Security = "starttls"      // mandatory STARTTLS, usually port 587
	SecurityOpportunistic Security = "opportunistic" // STARTTLS when offered
	SecurityNone          Security = "none"
)

type Config struct {
	Host               string   `json:"host,omitempty"`
	Port               int      `json:"port,omitempty"`
	Security           Security `json:"security,omitempty"`
	Username           string   `json:"username,omitempty"`
	Password           string   `json:"password,omitempty"`
	From               string   `json:"from,omitempty"`
	To                 []string `json:"to,omitempty"`
	Debug              bool     `json:"debug,omitempty"`
	Retries            int      `json:"retries,omitempty"`
	RetryDelaySeconds  int      `json:"retry_delay_seconds,omitempty"`
	TimeoutSeconds     int      `json:"timeout_seconds,omitempty"`
	MaxConnections     int      `json:"max_connections,omitempty"`
	MaxMessages        int      `json:"max_messages,omitempty"`
	RateLimitPerSecond int      `json:"rate_limit_per_second,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		Host:               "localhost",
		Port:               587,
		Security:           SecurityStartTLS,
		From:               "reports@localhost",
		Retries:            3,
		RetryDelaySeconds:  2,
		TimeoutSeconds:     60,
		MaxConnections:     3,
		MaxMessages:        10,
		RateLimitPerSecond: 5,
	}
}

// create config with default values before config gets initialized
var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

SMTP_* and EMAIL_* environment variables are applied last and win over the file.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "mailer", "not provided", "default mailer config")
	} else {
		Cfg = *localConfig
		tl.ApplyDefaults(&Cfg, DefaultValueConfig(), func(field string, defVal any) {
			tl.Log(
				tl.Info, palette.Purple,
				"%s field is %s in %s configuration. Using default value: %s",
				field, "missing", config.GetPackageName(), tl.PrettyForStderr(defVal),
			)
		})
		tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "mailer", "provided", "local mailer config")
	}

	ApplyEnv(&Cfg)

	tl.Log(
		tl.Verbose, palette.CyanDim, "%s configuration: %s:%s security=%s user='%s' from='%s' to=%s retries=%s pool=%s",
		config.GetPackageName(), Cfg.Host, Cfg.Port, Cfg.Security, Cfg.Username, Cfg.From, Cfg.To, Cfg.Retries, Cfg.MaxConnections,
	)
}

// ApplyEnv overrides cfg with the SMTP_* and EMAIL_* environment variables that are set.
func ApplyEnv(cfg *Config) {
	config.EnvString("SMTP_HOST", &cfg.Host)
	config.EnvInt("SMTP_PORT", &cfg.Port)

	secure := string(cfg.Security)
	config.EnvString("SMTP_SECURE", &secure)
	cfg.Security = ParseSecurity(secure)

	config.EnvString("SMTP_USER", &cfg.Username)
	config.EnvString("SMTP_PASS", &cfg.Password)
	config.EnvString("EMAIL_FROM", &cfg.From)
	config.EnvList("EMAIL_TO", &cfg.To)
	config.EnvBool("SMTP_DEBUG", &cfg.Debug)
	config.EnvInt("SMTP_RETRIES", &cfg.Retries)
	config.EnvInt("SMTP_RETRY_DELAY_SECONDS", &cfg.RetryDelaySeconds)
	config.EnvInt("SMTP_TIMEOUT_SECONDS", &cfg.TimeoutSeconds)
	config.EnvInt("SMTP_MAX_CONNECTIONS", &cfg.MaxConnections)
	config.EnvInt("SMTP_MAX_MESSAGES", &cfg.MaxMessages)
	config.EnvInt("SMTP_RATE_LIMIT", &cfg.RateLimitPerSecond)
}

/*
ParseSecurity maps a SMTP_SECURE value to a Security mode.

"true" is the implicit TLS switch some deployments use, "false" means STARTTLS when
offered. Unknown values fall back to mandatory STARTTLS.
*/
func ParseSecurity(raw string) Security {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ssl", "tls", "true", "implicit":
		return SecuritySSL
	case "starttls", "":
		return SecurityStartTLS
	case "opportunistic", "false":
		return SecurityOpportunistic
	case "none", "plain":
		return SecurityNone
	default:
		tl.Log(tl.Warning, palette.Yellow, "Unknown SMTP security mode '%s', using '%s'", raw, SecurityStartTLS)
		return SecurityStartTLS
	}
}
