package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/runlog/internal/foundation/errors"
)

// LoadFile reads a runlog.yaml file. ${VAR} references are expanded from the
// environment before parsing; unknown keys are rejected.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.NewError(ferrors.CategoryNotFound, "configuration file not found").
				Fatal().
				WithCause(err).
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.ConfigError("read configuration file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	expanded := os.ExpandEnv(string(data))

	var f File
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, ferrors.ConfigError("parse configuration file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return &f, nil
}

// Resolve merges flags, the optional runlog.yaml and built-in defaults.
// Precedence: an explicit flag > a flag that differs from its default > file
// value > default.
func Resolve(flags Flags) (*Options, error) {
	projectArg := flags.Project
	if projectArg == "" {
		projectArg = DefaultProject
	}
	project, err := filepath.Abs(projectArg)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "resolve project path").
			Fatal().
			WithContext("project", projectArg).
			Build()
	}

	file, configFile, err := locateFile(flags.ConfigPath, project)
	if err != nil {
		return nil, err
	}

	opts := &Options{
		Project:      project,
		Target:       flags.choose(FlagTarget, flags.Target, DefaultTarget, file.Target),
		Device:       flags.choose(FlagDevice, flags.Device, "", file.Device),
		LogPrefix:    pick("", DefaultLogPrefix, file.LogPrefix),
		Tool:         DefaultTool,
		FlushLines:   true,
		Instructions: DefaultInstructions,
		Quiet:        flags.Quiet,
		ConfigFile:   configFile,
		History:      file.History,
		Metrics:      file.Metrics,
		NATS:         file.NATS,
	}
	if len(file.Tool) > 0 {
		opts.Tool = file.Tool
	}
	if file.FlushLines != nil {
		opts.FlushLines = *file.FlushLines
	}
	if file.Instructions != nil {
		opts.Instructions = file.Instructions
	}

	rawLogDir := flags.choose(FlagLogDir, flags.LogDir, DefaultLogDir, file.LogDir)
	opts.LogDir = resolveAgainst(project, rawLogDir)

	if flags.History {
		opts.History.Enabled = true
	}
	if opts.History.Enabled {
		opts.History.Path = resolveAgainst(opts.LogDir, pick(opts.History.Path, "", DefaultHistoryFile))
	}
	if flags.MetricsFile != "" {
		opts.Metrics.Textfile = flags.MetricsFile
	}
	if flags.NATSURL != "" {
		opts.NATS.URL = flags.NATSURL
	}
	if opts.NATS.URL != "" && opts.NATS.Subject == "" {
		opts.NATS.Subject = DefaultSubject
	}

	if err := opts.Validate(rawLogDir); err != nil {
		return nil, err
	}
	return opts, nil
}

// locateFile returns the parsed config file, or an empty File when none applies.
// An explicit path must exist; the implicit <project>/runlog.yaml is optional.
func locateFile(explicit, project string) (*File, string, error) {
	path := explicit
	if path == "" {
		path = filepath.Join(project, DefaultFileName)
		if _, err := os.Stat(path); err != nil {
			return &File{}, "", nil
		}
	}
	f, err := LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}

// choose returns value as given when the flag was set explicitly, else pick's result.
func (f Flags) choose(name, value, def string, fallbacks ...string) string {
	if f.Explicit[name] {
		return value
	}
	return pick(value, def, fallbacks...)
}

// pick returns flag when it was changed from def, else the first non-empty
// fallback, else def.
func pick(flag, def string, fallbacks ...string) string {
	if flag != "" && flag != def {
		return flag
	}
	for _, v := range fallbacks {
		if v != "" {
			return v
		}
	}
	return def
}

func resolveAgainst(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
