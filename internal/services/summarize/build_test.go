package summarize

import (
	"fmt"
	"strings"
	"testing"
)

func TestBuildSuccessRequiresMarker(t *testing.T) {
	output := "=== BUILD TARGET App\nCompiling...\n** BUILD SUCCEEDED ** in 12.3 seconds\n"

	summary := Build(output, 0, "")
	if !summary.Success {
		t.Fatal("expected success")
	}
	if summary.Target != "App" {
		t.Fatalf("Target = %q", summary.Target)
	}
	if summary.ElapsedTime != "12.3s" {
		t.Fatalf("ElapsedTime = %q", summary.ElapsedTime)
	}
}

func TestBuildExitZeroWithoutMarkerIsNotSuccess(t *testing.T) {
	summary := Build("some chatter, no completion line\n", 0, "")
	if summary.Success {
		t.Fatal("exit 0 without a success marker must not be success")
	}
}

func TestBuildNonZeroExitIsNotSuccess(t *testing.T) {
	summary := Build("** BUILD SUCCEEDED **\n", 1, "")
	if summary.Success {
		t.Fatal("non-zero exit must not be success even with a marker")
	}
}

func TestBuildCountsErrorsAndWarnings(t *testing.T) {
	output := strings.Join([]string{
		"main.swift:10: error: use of unresolved identifier",
		"main.swift:20: warning: unused variable",
		"other.swift:5: error: cannot convert type",
		"** BUILD FAILED **",
	}, "\n")

	summary := Build(output, 65, "")
	if summary.Success {
		t.Fatal("expected failure")
	}
	// The FAILED marker line itself counts as an error line.
	if summary.ErrorCount != 3 {
		t.Fatalf("ErrorCount = %d, want 3", summary.ErrorCount)
	}
	if summary.WarningCount != 1 {
		t.Fatalf("WarningCount = %d, want 1", summary.WarningCount)
	}
	if summary.FirstError() == "" {
		t.Fatal("expected a first error line")
	}
}

func TestBuildErrorListCapped(t *testing.T) {
	var lines []string
	for i := 0; i < 25; i++ {
		lines = append(lines, fmt.Sprintf("file.swift:%d: error: problem %d", i, i))
	}

	summary := Build(strings.Join(lines, "\n"), 65, "")
	if summary.ErrorCount != 25 {
		t.Fatalf("ErrorCount = %d, want the true count", summary.ErrorCount)
	}
	if len(summary.Errors) != 10 {
		t.Fatalf("Errors length = %d, want capped at 10", len(summary.Errors))
	}
}

func TestBuildFatalMatchPrefixedAndForcesFailure(t *testing.T) {
	output := "main.swift:10: error: broken\n** BUILD SUCCEEDED **\n"

	summary := Build(output, 0, "linker crashed")
	if summary.Success {
		t.Fatal("fatal match must force failure")
	}
	if len(summary.Errors) == 0 || !strings.Contains(summary.Errors[0], "linker crashed") {
		t.Fatalf("expected fatal note first, got %v", summary.Errors)
	}
	if summary.ErrorCount != 2 {
		t.Fatalf("ErrorCount = %d, want parsed error plus fatal", summary.ErrorCount)
	}
}
