// Command validate re-checks a written assessment artifact against the
// indicator catalog it was scored with: indicator coverage, score bounds, the
// risk product, rank permutations, category spread, priority ordering and
// audit consistency. It exits non-zero when any phase fails, so it can gate a
// release of the artifact.
//
// Usage:
//
//	go run ./cmd/validate -artifact out/climate_risk_assessment.json
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/urban-climate-risk/internal/adapter/artifact"
	"github.com/couchcryptid/urban-climate-risk/internal/indicator"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("artifact", "out/climate_risk_assessment.json", "path to the assessment artifact")
	catalogPath := flag.String("catalog", "", "CUE indicator catalog the artifact was scored with (empty uses the built-in one)")
	flag.Parse()

	if code := run(*path, *catalogPath); code != 0 {
		os.Exit(code)
	}
}

func run(path, catalogPath string) int {
	fmt.Println("=== Climate Risk Artifact Validation ===")
	fmt.Println()

	catalog, err := indicator.Load(catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load catalog: %v\n", err)
		return 1
	}

	report, err := artifact.Read(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := validate(report, catalog)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Run %s: %d cities, %d excluded, %d audit entries\n",
		report.RunID, len(report.Cities), report.Summary.Excluded, len(report.Audit))

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}
