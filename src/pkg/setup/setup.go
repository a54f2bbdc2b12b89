// Package setup loads the configuration file and environment once per process and
// hands every package its own section.
package setup

import (
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/xerr"

	"fuel-report/src/pkg/config"
	echomw "fuel-report/src/pkg/echo-middleware"
	"fuel-report/src/pkg/mailer"
	"fuel-report/src/pkg/report"
	"fuel-report/src/pkg/source"
)

// FileConfig is the layout of the JSON config file. Every section is optional.
type FileConfig struct {
	Logger *tl.Config     `json:"logger,omitempty"`
	Server *echomw.Config `json:"server,omitempty"`
	Source *source.Config `json:"source,omitempty"`
	Mailer *mailer.Config `json:"mailer,omitempty"`
	Report *report.Config `json:"report,omitempty"`
}

// EnvVars are checked at startup; each one has a default.
var EnvVars = []string{
	"API_URL", "SMTP_HOST", "SMTP_PORT", "SMTP_SECURE", "SMTP_USER", "SMTP_PASS", "EMAIL_FROM", "EMAIL_TO",
}

/*
InitializeConfig loads .env, reads the config file at configPath and initializes
the logger and every package config, in that order.

Environment variables override the file. A missing file is fine, a broken one is not.
*/
func InitializeConfig(configPath string) (fileConfig FileConfig, e *xerr.Error) {
	config.LoadDotEnv()

	e = config.ReadConfigFile(configPath, &fileConfig)
	if e != nil {
		return fileConfig, e
	}

	tl.InitializeConfig(fileConfig.Logger)
	config.CheckIfEnvVarsPresent(EnvVars...)

	echomw.InitializeConfig(fileConfig.Server)
	source.InitializeConfig(fileConfig.Source)
	mailer.InitializeConfig(fileConfig.Mailer)
	report.InitializeConfig(fileConfig.Report)
	return fileConfig, nil
}
