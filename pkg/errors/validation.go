package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxRegionIDLength bounds region identifiers read from datasets and boundary files.
const maxRegionIDLength = 256

// ValidateRegionID validates a region identifier taken from a measurement record.
//
// Region identifiers are compared exactly and case-sensitively against the
// boundary feature names, so validation never normalizes them. It only
// rejects values that cannot possibly match a feature:
//   - No empty or whitespace-only identifiers
//   - No control characters
//   - Maximum length of 256 bytes
func ValidateRegionID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidRecord, "region identifier cannot be empty")
	}

	if len(id) > maxRegionIDLength {
		return New(ErrCodeInvalidRecord, "region identifier too long (max %d characters)", maxRegionIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRecord, "region identifier contains invalid control characters")
		}
	}

	return nil
}

// dataExtensions maps accepted dataset and boundary file extensions to formats.
var dataExtensions = map[string]string{
	".json":     "json",
	".geojson":  "geojson",
	".topojson": "topojson",
	".yaml":     "yaml",
	".yml":      "yaml",
	".toml":     "toml",
}

// DataFormat returns the input format implied by a filename extension.
// A ".json" file whose name ends in ".topo.json" is reported as "topojson".
func DataFormat(filename string) (string, error) {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".topo.json") {
		return "topojson", nil
	}
	if format, ok := dataExtensions[filepath.Ext(lower)]; ok {
		return format, nil
	}
	return "", New(ErrCodeInvalidFormat, "unsupported file type: %q (want .json, .geojson, .topojson, .yaml, .yml or .toml)", filepath.Base(filename))
}

// ValidateDataPath validates a dataset or boundary file path given on the
// command line or in a configuration file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
//   - Extension must be a supported data format
func ValidateDataPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	_, err := DataFormat(path)
	return err
}
