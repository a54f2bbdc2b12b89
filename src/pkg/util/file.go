package util

import (
	"encoding/json"
	"os"
	"path/filepath"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

/*
EnsureParentDirectory creates the directory that will hold filePath (and its parents).
*/
func EnsureParentDirectory(filePath string) (e *xerr.Error) {
	dirPath := filepath.Dir(filePath)
	err := os.MkdirAll(dirPath, 0o755)
	if err != nil {
		e = xerr.NewError(err, "create output directory", dirPath)
		return e
	}
	return e
}

/*
SaveTextToFile writes text to destinationPath, creating the directory first.

It overwrites any existing file at that location.
*/
func SaveTextToFile(destinationPath string, text string) (e *xerr.Error) {
	e = EnsureParentDirectory(destinationPath)
	if e != nil {
		return e
	}

	writeErr := os.WriteFile(destinationPath, []byte(text), 0o644)
	if writeErr != nil {
		e = xerr.NewError(writeErr, "write text file", destinationPath)
		return e
	}

	tl.Log(tl.Info1, palette.Green, "Saved %s bytes to '%s'", len(text), destinationPath)
	return e
}

/*
SaveJSONToFile marshals value to pretty-printed JSON and writes it to destinationPath.
*/
func SaveJSONToFile(destinationPath string, value any) (e *xerr.Error) {
	jsonBytes, marshalErr := json.MarshalIndent(value, "", "  ")
	if marshalErr != nil {
		e = xerr.NewError(marshalErr, "marshal value to JSON", destinationPath)
		return e
	}
	return SaveTextToFile(destinationPath, string(jsonBytes))
}
