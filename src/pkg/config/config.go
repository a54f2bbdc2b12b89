// Package config loads the JSON configuration file and the process environment.
// Every other package owns its own Config section and applies defaults itself.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

/*
CheckIfEnvVarsPresent logs every listed environment variable that is not set.

Nothing here is fatal: each package documents a fallback for its variables.
Returns the names that were missing.
*/
func CheckIfEnvVarsPresent(names ...string) (missing []string) {
	for _, name := range names {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
			tl.Log(tl.Warning1, palette.Yellow, "Env var %s is %s, default value will be used", name, "not set")
		}
	}
	return missing
}

/*
LoadDotEnv loads variables from .env files into the process environment.

Variables already present in the environment win. A missing file is not an error.
*/
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, statErr := os.Stat(path); statErr != nil {
			tl.Log(tl.Verbose, palette.PurpleDim, "No %s file at '%s', using process environment", ".env", path)
			continue
		}
		loadErr := godotenv.Load(path)
		if loadErr != nil {
			tl.Log(tl.Warning, palette.Yellow, "Unable to load '%s': %s", path, loadErr)
			continue
		}
		tl.Log(tl.Info, palette.Green, "Loaded environment from '%s'", path)
	}
}

/*
ReadConfigFile unmarshals the JSON file at path into target.

A missing file keeps target untouched (every section falls back to defaults).
An unreadable or malformed file is an error.
*/
func ReadConfigFile(path string, target any) (e *xerr.Error) {
	fileBytes, readErr := os.ReadFile(path)
	if errors.Is(readErr, os.ErrNotExist) {
		tl.Log(tl.Notice, palette.Purple, "Config file '%s' %s, using %s", path, "not found", "defaults and environment")
		return nil
	}
	if readErr != nil {
		return xerr.NewErrorECOL(readErr, "read config file", "path", path)
	}

	unmarshalErr := json.Unmarshal(fileBytes, target)
	if unmarshalErr != nil {
		return xerr.NewErrorECOL(unmarshalErr, "unmarshal config file", "path", path)
	}

	tl.Log(tl.Notice, palette.Green, "Config file '%s' %s", path, "loaded")
	return nil
}

/*
GetPackageName returns the name of the package that called it.

Used to label configuration logs, e.g. "mailer" or "echomw".
*/
func GetPackageName() string {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return "unknown"
	}
	return packageNameFromFunc(runtime.FuncForPC(pc).Name())
}

// "fuel-report/src/pkg/mailer.InitializeConfig" -> "mailer"
func packageNameFromFunc(funcName string) string {
	lastSlash := strings.LastIndex(funcName, "/")
	name := funcName[lastSlash+1:]
	if dot := strings.Index(name, "."); dot >= 0 {
		name = name[:dot]
	}
	if name == "" {
		return "unknown"
	}
	return name
}

// describe formats a value for logs, hiding secrets.
func describe(key string, value string) string {
	upper := strings.ToUpper(key)
	if strings.Contains(upper, "PASS") || strings.Contains(upper, "KEY") || strings.Contains(upper, "SECRET") {
		return fmt.Sprintf("<%d chars hidden>", len(value))
	}
	return value
}
