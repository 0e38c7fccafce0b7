// Command pcodelift lifts one instruction's p-code trace against an
// architecture description and prints the resulting status.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sleighlift/pcodelift/arch"
	"github.com/sleighlift/pcodelift/irbuilder"
	"github.com/sleighlift/pcodelift/lift"
	"github.com/sleighlift/pcodelift/pcode"
)

func main() {
	archPath := flag.String("arch", "", "path to a YAML architecture description")
	tracePath := flag.String("trace", "", "path to a JSON p-code trace")
	addr := flag.Uint64("addr", 0, "instruction address")
	insnLen := flag.Int("len", 1, "instruction length in bytes")
	conditional := flag.Bool("conditional-branch", false, "categorize the instruction as a conditional branch")
	flag.Parse()

	if *archPath == "" || *tracePath == "" {
		fmt.Fprintln(os.Stderr, "usage: pcodelift -arch arch.yaml -trace trace.json -addr 0x1000 -len 4")
		os.Exit(2)
	}

	runID := xid.New()
	logger := slog.Default().With("run", runID.String())
	lift.SetLogger(logger)
	atexit.Register(func() { logger.Info("run complete") })

	facade, err := arch.LoadFacade(*archPath)
	if err != nil {
		logger.Error("load architecture", "error", err)
		atexit.Exit(1)
	}

	data, err := os.ReadFile(*tracePath)
	if err != nil {
		logger.Error("read trace", "error", err)
		atexit.Exit(1)
	}
	trace, err := pcode.ParseTrace(data)
	if err != nil {
		logger.Error("parse trace", "error", err)
		atexit.Exit(1)
	}

	state := irbuilder.NewState()
	block := &irbuilder.Block{}
	b := irbuilder.NewRefBuilder(state, block)
	mem := b.NewMemoryHandle()

	category := pcode.CategoryOther
	if *conditional {
		category = pcode.CategoryConditionalBranch
	}

	insn := make([]byte, *insnLen)
	result, err := lift.Lift(facade, b, *trace, *addr, insn, category, mem)
	if err != nil {
		logger.Error("lift", "error", err)
		atexit.Exit(1)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Address", fmt.Sprintf("%#x", *addr)})
	t.AppendRow(table.Row{"Status", result.Status.String()})
	if result.FirstFault != nil {
		t.AppendRow(table.Row{"First fault", result.FirstFault.Opcode.String()})
	}
	t.AppendRow(table.Row{"Branch taken", result.BranchTaken != nil})
	t.AppendRow(table.Row{"IR instructions", len(block.Insts)})
	t.Render()

	atexit.Exit(0)
}
