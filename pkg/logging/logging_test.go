package logging_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/goliatone/go-axelforms/pkg/logging"
)

func TestRecorderForwards(t *testing.T) {
	var buf bytes.Buffer
	rec := logging.NewRecorder(logging.LogReporter{Logger: logging.New(&buf, slog.LevelDebug)})

	rec.Report(context.Background(), errors.New("missing data-variable"))
	rec.Report(context.Background(), nil)

	if got := len(rec.Errors()); got != 1 {
		t.Fatalf("expected 1 recorded error, got %d", got)
	}
	if !strings.Contains(buf.String(), "missing data-variable") {
		t.Fatalf("expected forwarded log line, got %q", buf.String())
	}

	rec.Reset()
	if len(rec.Errors()) != 0 {
		t.Fatalf("reset should clear errors")
	}
}
