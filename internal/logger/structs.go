package logger

// Console implements a console based logger.
type Console struct {
	Enabled          bool
	UseConsoleWriter bool // human readable output instead of json lines
}

// Rotation configures one lumberjack managed log file.
type Rotation struct {
	Name       string // file name below File.Path
	MaxSize    int    `default:"50"` // megabytes
	MaxBackups int    `default:"5"`
	MaxAge     int    `default:"14"` // days
	Compress   bool
}

// File implements a file based logger split by level.
type File struct {
	Enabled bool
	Path    string

	Access Rotation
	Error  Rotation
	Info   Rotation
	Trace  Rotation
	Warn   Rotation
}

// Log implements the logger config.
type Log struct {
	LogLevel string `default:"info"` // trace, debug, info, warn, error.

	// EnableAccessLogToConsole writes the http access log to stdout as well.
	// Has no effect while Console.Enabled is false.
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // do not log check alive calls

	AppName     string `default:"dirauth"`
	ServiceName string `default:"dirauth"`

	Console Console
	File    File
}
