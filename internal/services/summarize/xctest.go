package summarize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/voidws/xcpilot/internal/domain"
)

var (
	suitePassedRe = regexp.MustCompile(`Test Suite '[^']*' passed`)
	testCountRe   = regexp.MustCompile(`(?i)\b(\d+) tests?\b`)
	caseFailedRe  = regexp.MustCompile(`Test Case '[^']*' failed`)
)

// Test extracts a test-run summary. Success requires exit code zero AND a
// passed test-suite line. Every "<N> tests" occurrence in the output is
// summed, which tolerates differently-phrased count lines at the cost of
// double-counting when a tool reports both per-suite and total counts.
func Test(output string, exitCode int) domain.TestSummary {
	summary := domain.TestSummary{
		Success: exitCode == 0 && suitePassedRe.MatchString(output),
	}

	for _, m := range testCountRe.FindAllStringSubmatch(output, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			summary.TestCount += n
		}
	}

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if !caseFailedRe.MatchString(trimmed) {
			continue
		}
		summary.FailureCount++
		if len(summary.Failures) < domain.SummaryListLimit {
			summary.Failures = append(summary.Failures, trimmed)
		}
	}

	if m := elapsedRe.FindStringSubmatch(output); m != nil {
		summary.ElapsedTime = m[1] + "s"
	}

	return summary
}
