package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidConfig    = goerr.New("invalid configuration")
	ErrUnknownBackend   = goerr.New("unknown repository backend")
	ErrMissingName      = goerr.New("name is required")
	ErrDuplicateID      = goerr.New("duplicate ID")
	ErrDuplicateEmail   = goerr.New("duplicate email")
	ErrUnknownSite      = goerr.New("user refers to an unknown site")
	ErrUnknownTeam      = goerr.New("user refers to an unknown team")
	ErrInvalidLogLevel  = goerr.New("invalid log level")
	ErrInvalidLogFormat = goerr.New("invalid log format")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	BackendKey    = "backend"
	IDKey         = "id"
	EmailKey      = "email"
)
