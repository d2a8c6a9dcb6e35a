package logger

// Console implements a console based logger.
type Console struct {
	Enabled          bool `toml:"enabled"`
	UseConsoleWriter bool `toml:"useConsoleWriter"`
}

// Rotation configures one rolling log file.
type Rotation struct {
	File       string `toml:"file"`
	MaxSize    int    `toml:"maxSize"` // megabytes
	MaxBackups int    `toml:"maxBackups"`
	MaxAge     int    `toml:"maxAge"` // days
}

// LogFile implements a file based logger with one rolling file per level group.
type LogFile struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`

	Error Rotation `toml:"error"`
	Warn  Rotation `toml:"warn"`
	Info  Rotation `toml:"info"`
	Trace Rotation `toml:"trace"`
}

// Log implements the logger config.
type Log struct {
	LogLevel     string `toml:"logLevel"` // trace, debug, info, warn, error.
	ReportCaller bool   `toml:"reportCaller"`

	AppName     string `toml:"appName"`
	ServiceName string `toml:"serviceName"`

	// Console used mainly for interactive runs and containers.
	Console Console `toml:"console"`

	// File logging for scheduled runs.
	File LogFile `toml:"file"`
}
