package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentstation/masterlink/pkg/logging"
)

func TestSetDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(*original)

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.DebugLevel))

	logging.Default().Info().Msg("run started")
	if !strings.Contains(buf.String(), "run started") {
		t.Errorf("default logger did not write, got: %s", buf.String())
	}
}

func TestCaptureLoggingForTest(t *testing.T) {
	tl := logging.CaptureLoggingForTest(t)

	logging.Default().Debug().Str("source", "volgistics").Msg("source skipped")
	logging.Default().Info().Msg("linkage run complete")

	tl.AssertContains(t, "source skipped")
	tl.AssertContains(t, "linkage run complete")
	tl.AssertNotContains(t, "panic")
	if got := len(tl.Lines()); got != 2 {
		t.Errorf("expected 2 entries, got %d", got)
	}
}

func TestDisableLoggingForTest(t *testing.T) {
	logging.DisableLoggingForTest(t)
	if logging.Default().GetLevel() != zerolog.Disabled {
		t.Error("expected a disabled default logger")
	}
}
