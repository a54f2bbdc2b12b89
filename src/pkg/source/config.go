package source

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"fuel-report/src/pkg/config"
	"fuel-report/src/pkg/prices"
)

type Config struct {
	URL            string          `json:"url,omitempty"`
	APIKey         string          `json:"api_key,omitempty"`
	TimeoutSeconds int             `json:"timeout_seconds,omitempty"`
	Fields         prices.FieldMap `json:"fields,omitempty"`
}

// DefaultURL is the CKAN datastore endpoint of the Argentine fuel price dataset.
const DefaultURL = "https://datos.energia.gob.ar/api/3/action/datastore_search?resource_id=80ac25de-a44a-4445-9215-090cf55cfda5&limit=50000"

func DefaultValueConfig() Config {
	return Config{
		URL:            DefaultURL,
		APIKey:         "",
		TimeoutSeconds: 30,
		Fields:         prices.DefaultFieldMap(),
	}
}

// create config with default values before config gets initialized
var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.
Environment variables (API_URL, API_KEY, API_TIMEOUT_SECONDS, DATE_FIELDS) win over both.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "source", "not provided", "default source config")
	} else {
		Cfg = *localConfig
		tl.ApplyDefaults(&Cfg, DefaultValueConfig(), func(field string, defVal any) {
			tl.Log(
				tl.Info, palette.Purple,
				"%s field is %s in %s configuration. Using default value: %s",
				field, "missing", config.GetPackageName(), tl.PrettyForStderr(defVal),
			)
		})
		tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "source", "provided", "local source config")
	}

	config.EnvString("API_URL", &Cfg.URL)
	config.EnvString("API_KEY", &Cfg.APIKey)
	config.EnvInt("API_TIMEOUT_SECONDS", &Cfg.TimeoutSeconds)
	config.EnvList("DATE_FIELDS", &Cfg.Fields.Date)
	Cfg.Fields = Cfg.Fields.WithDefaults()

	tl.Log(tl.Verbose, palette.CyanDim, "%s configuration: url='%s', timeout=%ss, date fields=%s",
		config.GetPackageName(), Cfg.URL, Cfg.TimeoutSeconds, fmt.Sprint(Cfg.Fields.Date))
}
