package report

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"fuel-report/src/pkg/config"
)

type Config struct {
	Title    string `json:"title,omitempty"`
	MaxRows  int    `json:"max_rows,omitempty"`
	Timezone string `json:"timezone,omitempty"` // label printed in the header, the filters always use UTC-3
}

func DefaultValueConfig() Config {
	return Config{
		Title:    "Fuel price report",
		MaxRows:  15,
		Timezone: "UTC-3",
	}
}

// create config with default values before config gets initialized
var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

REPORT_TITLE overrides the title.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "report", "not provided", "default report config")
	} else {
		Cfg = *localConfig
		tl.ApplyDefaults(&Cfg, DefaultValueConfig(), func(field string, defVal any) {
			tl.Log(
				tl.Info, palette.Purple,
				"%s field is %s in %s configuration. Using default value: %s",
				field, "missing", config.GetPackageName(), tl.PrettyForStderr(defVal),
			)
		})
		tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "report", "provided", "local report config")
	}

	config.EnvString("REPORT_TITLE", &Cfg.Title)
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
