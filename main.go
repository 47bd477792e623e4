// Command machine-canvas is the CLI front end: it assembles one
// source file, runs it to completion on a single machine, and prints
// the resulting stack and event log. It mirrors the teacher binary's
// own shape (os.Args for the file list, flag for everything else,
// recover() guarding against an unexpected crash) generalized to this
// runtime's host-facing API instead of a byte-oriented register VM.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/heypoom/machine-canvas/canvas"
	"github.com/heypoom/machine-canvas/display"
	"github.com/heypoom/machine-canvas/machine"
)

var (
	viewPixelBlock = flag.Bool("view", false, "Launch a live pixel viewer instead of running once to completion")
	tickInterval   = flag.Duration("tick-interval", 16*time.Millisecond, "Simulation tick interval when -view is set")
)

func init() {
	flag.Parse()
}

func main() {
	args := os.Args[len(os.Args)-flag.NArg():]

	if len(args) == 0 {
		fmt.Println("Usage: machine-canvas [-view] <file.asm>")
		return
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		glog.Fatalf("cannot read %s: %v", args[0], err)
	}

	if *viewPixelBlock {
		runWithViewer(string(source))
		return
	}

	runOnce(string(source))
}

// runOnce assembles and runs source to completion on a single bare
// machine, then prints its event log and final stack — the same
// single-machine convenience the original controller exposed before
// canvas support existed.
func runOnce(source string) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Println("fatal:", r)
		}
	}()

	ctl := canvas.NewController()
	id := ctl.Add()

	result, err := ctl.RunMachine(id, source)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("events:")
	for _, ev := range result.Events {
		fmt.Printf("  %#v\n", ev)
	}

	fmt.Println("stack:", result.Stack)
}

// runWithViewer wires source into a one-machine canvas feeding a
// PixelBlock, then launches a live view over it. This demonstrates
// the display package; it expects the program to Send on port (0, 0),
// the machine's own port that is wired to the PixelBlock (block 1).
func runWithViewer(source string) {
	ctl := canvas.NewController()
	c := ctl.Canvas()

	m0 := c.AddMachine()
	pixelID, err := c.AddBlock(&canvas.PixelBlock{})
	if err != nil {
		glog.Fatalf("cannot add pixel block: %v", err)
	}

	if _, err := c.Connect(machine.Port{BlockID: m0, Index: 0}, machine.Port{BlockID: pixelID, Index: 0}); err != nil {
		glog.Fatalf("cannot wire machine to pixel block: %v", err)
	}

	mach, err := c.Router().Get(m0)
	if err != nil {
		glog.Fatalf("cannot get machine: %v", err)
	}

	ops, symbols, err := machine.Parse(source)
	if err != nil {
		glog.Fatalf("parse error: %v", err)
	}
	if err := mach.LoadCode(ops); err != nil {
		glog.Fatalf("load code failed: %v", err)
	}
	if err := mach.LoadSymbols(symbols); err != nil {
		glog.Fatalf("load symbols failed: %v", err)
	}
	mach.Ready()
	c.Router().Ready()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	view := display.NewView(c, pixelID, 8)
	if err := view.Run(ctx, *tickInterval); err != nil {
		glog.Warningf("viewer stopped: %v", err)
	}
}
