package config

import (
	"os"
	"strconv"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

// The Env* helpers override target only when the variable is set and valid.

func EnvString(key string, target *string) {
	value, ok := lookup(key)
	if !ok {
		return
	}
	*target = value
	logOverride(key, value)
}

func EnvInt(key string, target *int) {
	value, ok := lookup(key)
	if !ok {
		return
	}
	parsed, parseErr := strconv.Atoi(value)
	if parseErr != nil {
		tl.Log(tl.Warning, palette.Yellow, "Env var %s='%s' is %s, keeping %s", key, value, "not an integer", *target)
		return
	}
	*target = parsed
	logOverride(key, value)
}

func EnvBool(key string, target *bool) {
	value, ok := lookup(key)
	if !ok {
		return
	}
	parsed, parseErr := strconv.ParseBool(value)
	if parseErr != nil {
		tl.Log(tl.Warning, palette.Yellow, "Env var %s='%s' is %s, keeping %s", key, value, "not a boolean", *target)
		return
	}
	*target = parsed
	logOverride(key, value)
}

// EnvList reads a comma-separated list. Blank items are dropped.
func EnvList(key string, target *[]string) {
	value, ok := lookup(key)
	if !ok {
		return
	}
	list := SplitList(value)
	if len(list) == 0 {
		return
	}
	*target = list
	logOverride(key, value)
}

// SplitList splits "a@x.com, b@y.com" into trimmed, non-empty items.
func SplitList(raw string) (items []string) {
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func lookup(key string) (value string, ok bool) {
	value = strings.TrimSpace(os.Getenv(key))
	return value, value != ""
}

func logOverride(key, value string) {
	tl.Log(tl.Detailed, palette.Purple, "Env var %s overrides config: '%s'", key, describe(key, value))
}
