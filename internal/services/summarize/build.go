// Package summarize holds the best-effort parsers that turn large
// unstructured tool output into compact structured summaries.
//
// The upstream CLI text formats are not a stable contract. These extractors
// tolerate phrasing variations by pattern-matching markers rather than
// parsing structure; ambiguous input degrades to conservative results
// (success is never reported without an explicit success marker).
package summarize

import (
	"regexp"
	"strings"

	"github.com/voidws/xcpilot/internal/domain"
)

var (
	buildErrorRe   = regexp.MustCompile(`(?i)\berror:`)
	buildWarningRe = regexp.MustCompile(`(?i)\bwarning:`)
	buildFailedRe  = regexp.MustCompile(`\*\* (?:BUILD|ARCHIVE|CLEAN) FAILED \*\*`)
	buildPassedRe  = regexp.MustCompile(`\*\* (?:BUILD|ARCHIVE|CLEAN) SUCCEEDED \*\*`)
	buildTargetRe  = regexp.MustCompile(`(?m)^=== BUILD TARGET (\S+)`)
	elapsedRe      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*sec(?:onds)?\b`)
)

// Build extracts a build summary from combined stdout/stderr text.
//
// Success requires exit code zero AND an explicit success marker; a tool
// that exits zero without printing a completion line is not successful.
// A fatal-pattern match is surfaced ahead of any parsed build errors.
func Build(output string, exitCode int, fatalMatch string) domain.BuildSummary {
	summary := domain.BuildSummary{}

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case buildErrorRe.MatchString(trimmed) || buildFailedRe.MatchString(trimmed):
			summary.ErrorCount++
			if len(summary.Errors) < domain.SummaryListLimit {
				summary.Errors = append(summary.Errors, trimmed)
			}
		case buildWarningRe.MatchString(trimmed):
			summary.WarningCount++
			if len(summary.Warnings) < domain.SummaryListLimit {
				summary.Warnings = append(summary.Warnings, trimmed)
			}
		}
	}

	summary.Success = exitCode == 0 && buildPassedRe.MatchString(output)

	if m := buildTargetRe.FindStringSubmatch(output); m != nil {
		summary.Target = m[1]
	}
	if m := elapsedRe.FindStringSubmatch(output); m != nil {
		summary.ElapsedTime = m[1] + "s"
	}

	if fatalMatch != "" {
		summary.Success = false
		summary.ErrorCount++
		prefixed := append([]string{"terminated on fatal output: " + fatalMatch}, summary.Errors...)
		if len(prefixed) > domain.SummaryListLimit {
			prefixed = prefixed[:domain.SummaryListLimit]
		}
		summary.Errors = prefixed
	}

	return summary
}
