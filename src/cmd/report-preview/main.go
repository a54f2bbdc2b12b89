package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/google/uuid"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"fuel-report/src/pkg/prices"
	"fuel-report/src/pkg/report"
	"fuel-report/src/pkg/setup"
	"fuel-report/src/pkg/source"
	"fuel-report/src/pkg/trigger"
	"fuel-report/src/pkg/util"
)

/*
previewOptions controls where the dataset comes from and where output is written.
*/
type previewOptions struct {
	ConfigPath string
	InputPath  string
	OutputPath string
	TextPath   string
	JSONPath   string
	Request    trigger.Request
	MaxRows    int
}

/*
report-preview renders the report exactly as the email would carry it, without sending anything.

Example:

	go run ./src/cmd/report-preview -o ./tmp/report.html -start 2024-05-01 -end 2024-05-10
	go run ./src/cmd/report-preview -o ./tmp/report.html -in ./tmp/dataset.json
*/
func main() {
	options := parseFlags()

	_, e := setup.InitializeConfig(options.ConfigPath)
	if e != nil {
		e.QuitIf(xerr.ErrorTypeError)
	}
	if options.MaxRows > 0 {
		report.Cfg.MaxRows = options.MaxRows
	}

	now := time.Now()
	period, e := trigger.ResolvePeriod(options.Request, now)
	if e != nil {
		e.QuitIf(xerr.ErrorTypeError)
	}

	full, e := loadDataset(options.InputPath)
	if e != nil {
		e.QuitIf(xerr.ErrorTypeError)
	}

	agg, meta := trigger.Compose(full, period, report.Cfg, now, uuid.NewString())

	e = util.SaveTextToFile(options.OutputPath, report.RenderHTML(agg, meta))
	if e != nil {
		e.QuitIf(xerr.ErrorTypeError)
	}
	if options.TextPath != "" {
		e = util.SaveTextToFile(options.TextPath, report.RenderText(agg, meta))
		if e != nil {
			e.QuitIf(xerr.ErrorTypeError)
		}
	}
	if options.JSONPath != "" {
		e = util.SaveJSONToFile(options.JSONPath, agg)
		if e != nil {
			e.QuitIf(xerr.ErrorTypeError)
		}
	}
	tl.Log(tl.Notice, palette.GreenBold, "Preview '%s' saved: %s of %s records", trigger.Subject(meta), agg.TotalRecords, full.Len())
}

func parseFlags() previewOptions {
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")
	inputPath := flag.String("in", "", "Read the dataset from this JSON file instead of the API")
	outputPath := flag.String("o", "", "Output HTML path")
	textPath := flag.String("text", "", "Also write the plain-text body to this path")
	jsonPath := flag.String("json", "", "Also write the aggregated numbers as JSON to this path")
	startDate := flag.String("start", "", "Start date YYYY-MM-DD (range mode)")
	endDate := flag.String("end", "", "End date YYYY-MM-DD (range mode)")
	maxRows := flag.Int("max-rows", 0, "Rows per table before the remainder is grouped into 'Other'")

	flag.Parse()

	util.RequiredFlag(outputPath, "o")
	util.EnsureFlags()

	return previewOptions{
		ConfigPath: *configPath,
		InputPath:  *inputPath,
		OutputPath: *outputPath,
		TextPath:   *textPath,
		JSONPath:   *jsonPath,
		Request:    trigger.Request{StartDate: *startDate, EndDate: *endDate},
		MaxRows:    *maxRows,
	}
}

// loadDataset reads a saved API response when path is set, otherwise fetches it.
func loadDataset(path string) (dataset prices.Dataset, e *xerr.Error) {
	if path == "" {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(source.Cfg.TimeoutSeconds)*time.Second)
		defer cancel()
		return source.NewClient(source.Cfg).Fetch(ctx)
	}

	body, readErr := os.ReadFile(path)
	if readErr != nil {
		return dataset, xerr.NewErrorECOL(readErr, "read dataset file", "path", path)
	}
	dataset = prices.DecodeDataset(body, source.Cfg.Fields)
	tl.Log(tl.Info1, palette.Green, "Loaded %s records from '%s'", dataset.Len(), path)
	return dataset, nil
}
