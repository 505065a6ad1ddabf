// Command zipcheck loads a zip directory reference file the same way the
// service does and reports rows that were excluded or only partially usable.
// With -alerts it also reports how each alert in a saved GeoJSON collection
// would be matched.
//
// Usage:
//
//	go run ./cmd/zipcheck -zips data/zip_directory.csv [-alerts alerts.geojson] [-strict]
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/couchcryptid/hazard-target-service/internal/adapter/zipfile"
	"github.com/couchcryptid/hazard-target-service/internal/domain"
	"github.com/couchcryptid/hazard-target-service/internal/spatial"
)

// maxListed caps the per-phase error listing.
const maxListed = 25

// phase tracks pass/fail for a check.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	zipPath := flag.String("zips", "", "path to the zip directory file")
	alertsPath := flag.String("alerts", "", "optional GeoJSON FeatureCollection to test matching against")
	strict := flag.Bool("strict", false, "treat unlocated rows and rows without a county as failures")
	flag.Parse()

	if *zipPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*zipPath, *alertsPath, *strict); code != 0 {
		os.Exit(code)
	}
}

func run(zipPath, alertsPath string, strict bool) int {
	fmt.Println("=== Zip Directory Check ===")
	fmt.Println()

	dir, report, err := zipfile.Load(zipPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		checkExcluded(report),
		checkUsability(dir, strict),
	}
	if alertsPath != "" {
		p, err := checkAlerts(dir, alertsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}
		phases = append(phases, p)
	}

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
	fmt.Printf("Rows: %d read, %d loaded, %d unlocated, %d without county, %d duplicates, %d excluded\n",
		report.Rows, report.Loaded, report.Unlocated, report.MissingCounty, report.Duplicates, len(report.Excluded))
	printStates(dir)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxListed {
				fmt.Printf("  ... %d more\n", len(p.errors)-maxListed)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll checks passed.")
		return 0
	}
	fmt.Println("\nCheck FAILED.")
	return 1
}

func checkExcluded(report zipfile.Report) *phase {
	p := &phase{name: "Rows parse"}
	for _, e := range report.Excluded {
		if e.Zip != "" {
			p.errorf("line %d (%s): %s", e.Line, e.Zip, e.Reason)
			continue
		}
		p.errorf("line %d: %s", e.Line, e.Reason)
	}
	return p
}

// checkUsability flags entries that only one matching strategy can reach.
func checkUsability(dir *domain.ZipDirectory, strict bool) *phase {
	p := &phase{name: "Entries matchable"}
	for _, e := range dir.Entries() {
		noCounty := e.County == ""
		switch {
		case !e.Located && noCounty:
			p.errorf("%s: no coordinates and no county, never matched", e.Zip)
		case strict && !e.Located:
			p.errorf("%s: no coordinates, text matching only", e.Zip)
		case strict && noCounty:
			p.errorf("%s: no county, geometry matching only", e.Zip)
		}
	}
	return p
}

func checkAlerts(dir *domain.ZipDirectory, path string) (*phase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alerts: %w", err)
	}
	features, err := domain.ParseFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	p := &phase{name: "Alerts match"}
	for _, f := range features {
		plan := spatial.NewPlan(f)
		zips := spatial.MatchFeatureToZips(f, dir)
		fmt.Printf("  %-50s %-10s %5d zips\n", truncate(f.ID, 50), plan.Coverage, len(zips))
		switch {
		case plan.Coverage == spatial.CoverageNone:
			p.errorf("%s: no geometry and no area description", f.ID)
		case plan.Dropped() > 0:
			p.errorf("%s: %d malformed polygons ignored", f.ID, plan.Dropped())
		case len(zips) == 0:
			p.errorf("%s (%s): matched no zip codes", f.ID, f.Event)
		}
	}
	fmt.Println()
	return p, nil
}

func printStates(dir *domain.ZipDirectory) {
	counts := make(map[string]int)
	for _, e := range dir.Entries() {
		counts[e.State]++
	}
	states := make([]string, 0, len(counts))
	for s := range counts {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool {
		if counts[states[i]] != counts[states[j]] {
			return counts[states[i]] > counts[states[j]]
		}
		return states[i] < states[j]
	})

	fmt.Print("States:")
	for i, s := range states {
		if i == 10 {
			fmt.Printf(" (+%d more)", len(states)-10)
			break
		}
		fmt.Printf(" %s=%d", s, counts[s])
	}
	fmt.Println()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n+3:]
}
