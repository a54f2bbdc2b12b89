package echomw

import (
	"fmt"
	"net"
	"strconv"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"fuel-report/src/pkg/config"
)

type Config struct {
	Address                string `json:"address,omitempty"`
	Port                   int    `json:"port,omitempty"`
	ServiceName            string `json:"service_name,omitempty"`
	MiddlewareRateLimit    int    `json:"middleware_rate_limit,omitempty"`
	MiddlewareBurst        int    `json:"middleware_burst,omitempty"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		Address:                "0.0.0.0",
		Port:                   3000,
		ServiceName:            "fuel-report",
		MiddlewareRateLimit:    1,
		MiddlewareBurst:        5,
		ShutdownTimeoutSeconds: 30,
	}
}

// create config with default values before config gets initialized
var Cfg Config = DefaultValueConfig() // this one we use to access config values from anywhere

/*
If local Config is provided - use it. Replace all missing values with default ones.

HOST and PORT environment variables win over both.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "echo-middleware", "not provided", "default echo-middleware config")
	} else {
		Cfg = *localConfig
		tl.ApplyDefaults(&Cfg, DefaultValueConfig(), func(field string, defVal any) {
			tl.Log(
				tl.Info, palette.Purple,
				"%s field is %s in %s configuration. Using default value: %s",
				field, "missing", config.GetPackageName(), tl.PrettyForStderr(defVal),
			)
		})
		tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "echo-middleware", "provided", "local echo-middleware config")
	}

	config.EnvString("HOST", &Cfg.Address)
	config.EnvInt("PORT", &Cfg.Port)
	UpdateRateLimits(Cfg.MiddlewareRateLimit, Cfg.MiddlewareBurst)

	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}

// ListenAddress is host:port for echo.Start.
func (c Config) ListenAddress() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}
