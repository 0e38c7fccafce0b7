// Command pcodebench replays a scenario corpus, paced by an akita
// ticking engine, and prints a pass/fail replay report. With -debug it also
// serves a small HTTP status endpoint while the run is in flight.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/tebeka/atexit"

	"github.com/sleighlift/pcodelift/arch"
	"github.com/sleighlift/pcodelift/corpus"
)

// bench is a ticking component that replays one scenario per cycle,
// the same engine-driven pacing this architecture's other components
// use rather than a bare for loop over the scenario slice.
type bench struct {
	*sim.TickingComponent

	facade    arch.Facade
	scenarios []corpus.Scenario
	next      int
	outcomes  map[string]corpus.Outcome
	errs      map[string]error
}

func newBench(name string, engine sim.Engine, freq sim.Freq, facade arch.Facade, scenarios []corpus.Scenario) *bench {
	b := &bench{
		facade:    facade,
		scenarios: scenarios,
		outcomes:  make(map[string]corpus.Outcome),
		errs:      make(map[string]error),
	}
	b.TickingComponent = sim.NewTickingComponent(name, engine, freq, b)
	return b
}

func (b *bench) Tick() (madeProgress bool) {
	if b.next >= len(b.scenarios) {
		return false
	}
	sc := b.scenarios[b.next]
	b.next++

	outcome, err := corpus.Run(b.facade, sc)
	if err != nil {
		b.errs[sc.Name] = err
	} else {
		b.outcomes[sc.Name] = outcome
	}
	return true
}

func main() {
	debugAddr := flag.String("debug", "", "if set, serve a status endpoint on this address while benching (e.g. :6060)")
	corpusPath := flag.String("corpus", "", "optional sqlite corpus to replay instead of the built-in golden scenarios")
	flag.Parse()

	facade, err := corpus.Facade()
	if err != nil {
		log.Fatalf("load built-in architecture: %v", err)
	}

	scenarios := corpus.Golden()
	if *corpusPath != "" {
		store, err := openStore(*corpusPath, scenarios)
		if err != nil {
			log.Fatalf("open corpus: %v", err)
		}
		atexit.Register(func() { store.Close() })
		names, err := store.List()
		if err != nil {
			log.Fatalf("list corpus: %v", err)
		}
		scenarios = scenarios[:0]
		for _, name := range names {
			sc, err := store.Get(name)
			if err != nil {
				log.Fatalf("read scenario %s: %v", name, err)
			}
			scenarios = append(scenarios, sc)
		}
	}

	if *debugAddr != "" {
		go serveDebug(*debugAddr, scenarios)
	}

	engine := sim.NewSerialEngine()
	b := newBench("Bench", engine, 1*sim.GHz, facade, scenarios)
	b.TickNow()
	engine.Run()

	report := corpus.RunReport(facade, scenarios)
	report.WriteReport(os.Stdout)

	fmt.Printf("\nticking engine replayed %d scenario(s) across %d cycle(s)\n", len(b.outcomes)+len(b.errs), b.next)
	printHostStats(os.Stdout)

	if !report.Passed() {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// openStore seeds a fresh sqlite corpus with the built-in golden
// scenarios if the file doesn't already hold any, so a first run
// against a new path has something to replay.
func openStore(path string, seed []corpus.Scenario) (*corpus.Store, error) {
	store, err := corpus.Open(path)
	if err != nil {
		return nil, err
	}
	names, err := store.List()
	if err != nil {
		store.Close()
		return nil, err
	}
	if len(names) == 0 {
		for _, sc := range seed {
			if err := store.Put(sc); err != nil {
				store.Close()
				return nil, err
			}
		}
	}
	return store, nil
}

func serveDebug(addr string, scenarios []corpus.Scenario) {
	r := mux.NewRouter()
	r.HandleFunc("/scenarios", func(w http.ResponseWriter, req *http.Request) {
		names := make([]string, len(scenarios))
		for i, sc := range scenarios {
			names[i] = sc.Name
		}
		json.NewEncoder(w).Encode(names)
	})
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Printf("debug server: %v", err)
	}
}

func printHostStats(w *os.File) {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		fmt.Fprintln(w, "\nhost stats unavailable")
		return
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		fmt.Fprintln(w, "\nhost stats unavailable")
		return
	}
	fmt.Fprintf(w, "\nhost: cpu %.1f%%, memory %.1f%% used\n", percents[0], vm.UsedPercent)
}
