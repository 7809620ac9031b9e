package fetcher

import (
	"embed"
	"errors"
	"io/fs"
	"log/slog"
)

//go:embed fields.json
var embeddedFields embed.FS

// ResolveFields picks the field selector string in the following order:
// 1. A raw override (GRAPH_FIELDS)
// 2. External file at configPath (FIELDS_CONFIG_PATH), if it exists
// 3. Embedded fields.json
// 4. Hardcoded defaults
func ResolveFields(override, configPath string, logger *slog.Logger) string {
	if override != "" {
		logger.Info("Using field selector override")
		return override
	}

	if configPath != "" {
		fc, err := LoadFields(configPath)
		switch {
		case err == nil:
			logger.Info("Loaded fields from external file", "path", configPath)
			return fc.String()
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("No external field config, using embedded", "path", configPath)
		default:
			logger.Warn("Failed to load external fields. Trying embedded config.", "path", configPath, "error", err)
		}
	}

	data, err := embeddedFields.ReadFile("fields.json")
	if err == nil {
		fc, parseErr := LoadFieldsFromBytes(data)
		if parseErr == nil {
			logger.Debug("Loaded fields from embedded config.")
			return fc.String()
		}
		logger.Warn("Embedded fields failed to parse. Using defaults.", "error", parseErr)
	}

	logger.Info("Using hardcoded default fields")
	return DefaultFields().String()
}
