package repomanager

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/pressly/goose/v3"
)

// migrationLogger sends goose output to a logging.Logger at debug level.
type migrationLogger struct {
	log logging.Logger
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.log.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf keeps goose's contract of not returning.
func (l migrationLogger) Fatalf(format string, v ...any) {
	l.log.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
	os.Exit(1)
}

func gooseLogger(log logging.Logger) goose.Logger {
	if log == nil {
		return goose.NopLogger()
	}
	return migrationLogger{log: log.With("module", "migrations")}
}
