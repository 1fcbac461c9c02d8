package cli

import (
	"strings"
	"testing"

	apperrors "github.com/bluzername/telegram-financial-harvester/internal/errors"
	"github.com/bluzername/telegram-financial-harvester/internal/models"
	"github.com/bluzername/telegram-financial-harvester/internal/pipeline"
)

func testSummary() *pipeline.Summary {
	return &pipeline.Summary{
		Channel:       "Capitol Trades",
		TotalMessages: 10,
		SignalsFound:  3,
		SignalsSent:   2,
		Duplicates:    0,
		Errors:        1,
		Failures: []*apperrors.DeliveryError{
			apperrors.NewDeliveryError("NVDA", 500, "internal server error"),
		},
	}
}

func TestSummaryJSON(t *testing.T) {
	got := summaryJSON(testSummary(), "a1b2c3d4", false)

	if got["run_id"] != "a1b2c3d4" {
		t.Errorf("run_id = %v", got["run_id"])
	}
	if got["dry_run"] != false {
		t.Errorf("dry_run = %v", got["dry_run"])
	}
	if got["channel"] != "Capitol Trades" {
		t.Errorf("channel = %v", got["channel"])
	}
	if got["messages_processed"] != 10 || got["signals_found"] != 3 || got["signals_sent"] != 2 {
		t.Errorf("counts = %v/%v/%v", got["messages_processed"], got["signals_found"], got["signals_sent"])
	}
	if got["errors"] != 1 {
		t.Errorf("errors = %v", got["errors"])
	}

	failures, ok := got["failures"].([]string)
	if !ok || len(failures) != 1 {
		t.Fatalf("failures = %v", got["failures"])
	}
	if !strings.Contains(failures[0], "NVDA") || !strings.Contains(failures[0], "500") {
		t.Errorf("Failure string = %q", failures[0])
	}
}

func TestRunProgressVerboseGating(t *testing.T) {
	sig := &models.Signal{Ticker: "AAPL", TransactionType: "BUY", PoliticianName: "Nancy Pelosi"}

	output, buf := newBufferOutput()
	quiet := &runProgress{output: output, verbose: false}
	quiet.Collected(50)
	quiet.Extracted(10, 20)
	if buf.Len() != 0 {
		t.Errorf("Quiet progress wrote %q, want nothing", buf.String())
	}

	quiet.SignalFound(101, sig)
	if !strings.Contains(buf.String(), "AAPL") {
		t.Errorf("SignalFound should print regardless of verbosity, got %q", buf.String())
	}

	output, buf = newBufferOutput()
	chatty := &runProgress{output: output, verbose: true}
	chatty.Collected(50)
	chatty.Extracted(10, 20)
	out := buf.String()
	if !strings.Contains(out, "Fetched 50 messages") {
		t.Errorf("Verbose Collected missing, got %q", out)
	}
	if !strings.Contains(out, "Parsed 10/20 messages") {
		t.Errorf("Verbose Extracted missing, got %q", out)
	}
}

func TestRunProgressPreview(t *testing.T) {
	output, buf := newBufferOutput()
	p := &runProgress{output: output}
	p.Preview(&models.Signal{Ticker: "MSFT", TransactionType: "SELL", PoliticianName: "Dan Crenshaw"})

	out := buf.String()
	if !strings.Contains(out, "DRY RUN") || !strings.Contains(out, "MSFT SELL - Dan Crenshaw") {
		t.Errorf("Preview output = %q", out)
	}
}

func TestPrintSummaryLive(t *testing.T) {
	output, buf := newBufferOutput()
	printSummary(output, testSummary(), false)

	out := buf.String()
	for _, want := range []string{
		"PIPELINE RUN COMPLETE",
		"Messages processed: 10",
		"Signals found:      3",
		"Signals sent:       2",
		"NVDA: internal server error",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Summary missing %q in %q", want, out)
		}
	}
}

func TestPrintSummaryDryRun(t *testing.T) {
	output, buf := newBufferOutput()
	printSummary(output, testSummary(), true)

	out := buf.String()
	if !strings.Contains(out, "Dry run: no signals sent") {
		t.Errorf("Dry-run notice missing in %q", out)
	}
	if strings.Contains(out, "Signals sent") {
		t.Errorf("Dry-run summary should not report sent counts, got %q", out)
	}
}
