package config

import (
	"strings"

	ferrors "git.home.luguber.info/inful/runlog/internal/foundation/errors"
)

// Validate checks the resolved options. rawLogDir is the log directory value
// before it was joined with the project path.
func (o *Options) Validate(rawLogDir string) error {
	if strings.TrimSpace(o.Target) == "" {
		return ferrors.ValidationError("target must not be empty").Build()
	}
	if strings.TrimSpace(rawLogDir) == "" {
		return ferrors.ValidationError("logdir must not be empty").Build()
	}
	if len(o.Tool) == 0 || strings.TrimSpace(o.Tool[0]) == "" {
		return ferrors.ValidationError("tool must name an executable").
			WithContext("config", o.ConfigFile).
			Build()
	}
	if strings.ContainsAny(o.LogPrefix, `/\`) {
		return ferrors.ValidationError("log_prefix must not contain path separators").
			WithContext("log_prefix", o.LogPrefix).
			Build()
	}
	return nil
}
