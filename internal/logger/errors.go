package logger

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("config Log.AppName can not be empty")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("config Log.ServiceName can not be empty")
)

var (
	writeFailures = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "log_write_failures_total",
		Help: "Number of log events that could not be written to any output.",
	})

	// errorOutput receives the events zerolog failed to write.
	errorOutput io.Writer = os.Stderr //nolint:gochecknoglobals
)

// ErrorHandler counts and reports events zerolog failed to write, e.g. when a
// rotated log file can not be reopened.
func ErrorHandler(err error) {
	writeFailures.Inc()

	_, _ = fmt.Fprintf(errorOutput, "zerolog: could not write event: %v\n", err)
}
