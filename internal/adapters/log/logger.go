package log

import (
	"io"
	"os"

	"github.com/bft-labs/framecast/internal/ports"
	"github.com/bft-labs/framecast/pkg/log"
)

// Bootstrap returns the console logger used before configuration is loaded.
func Bootstrap() ports.Logger {
	l, _ := log.NewZerologAdapter(log.Options{Out: os.Stderr})
	return l
}

// New builds the process logger from configured level and format.
// Every entry carries the running component name.
func New(component, level, format string, out io.Writer) (ports.Logger, error) {
	l, err := log.NewZerologAdapter(log.Options{Level: level, Format: format, Out: out})
	if err != nil {
		return nil, err
	}
	return l.With(log.String("component", component)), nil
}
