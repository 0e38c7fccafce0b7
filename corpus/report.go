package corpus

import (
	"fmt"
	"io"
	"strings"

	"github.com/sleighlift/pcodelift/arch"
)

// Report is the outcome of replaying a whole scenario set: one verdict
// per scenario plus the running pass/fail tallies, in the same spirit
// as the teacher's per-PE verification report.
type Report struct {
	Facade    arch.Facade
	Scenarios []Scenario
	Errors    map[string]error
}

// RunReport replays every scenario in scenarios against facade and
// collects a Report.
func RunReport(facade arch.Facade, scenarios []Scenario) *Report {
	r := &Report{Facade: facade, Scenarios: scenarios, Errors: make(map[string]error)}
	for _, sc := range scenarios {
		if err := Verify(facade, sc); err != nil {
			r.Errors[sc.Name] = err
		}
	}
	return r
}

// Passed reports whether every scenario in the report verified clean.
func (r *Report) Passed() bool { return len(r.Errors) == 0 }

// WriteReport writes a formatted pass/fail report to w.
func (r *Report) WriteReport(w io.Writer) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "LIFT SCENARIO REPLAY REPORT")
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "\nReplayed %d scenario(s)\n\n", len(r.Scenarios))

	for _, sc := range r.Scenarios {
		if err, failed := r.Errors[sc.Name]; failed {
			fmt.Fprintf(w, "⚠ %-36s FAILED: %v\n", sc.Name, err)
		} else {
			fmt.Fprintf(w, "✓ %-36s ok\n", sc.Name)
		}
	}

	fmt.Fprintln(w, "\n"+separator)
	if r.Passed() {
		fmt.Fprintln(w, "All scenarios verified clean.")
	} else {
		fmt.Fprintf(w, "%d of %d scenario(s) failed verification.\n", len(r.Errors), len(r.Scenarios))
	}
	fmt.Fprintln(w, separator)
}
