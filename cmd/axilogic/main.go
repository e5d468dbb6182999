// cmd/axilogic is a minimal driver around the verification kernel: it
// boots a VM, installs the axiom bootstrap, and reports what got
// registered. Parsing a source proof language into bytecode is explicitly
// out of scope (see Non-goals); a real driver would sit here and translate
// tokens into bytecode.Chunk instructions.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/sshockwave/axilogic/internal/kit"
	"github.com/sshockwave/axilogic/internal/vm"
)

const version = "0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) > 0 && (args[0] == "--version" || args[0] == "-v") {
		fmt.Println("axilogic", version)
		return
	}
	if len(args) > 0 && (args[0] == "--help" || args[0] == "-h") {
		showUsage()
		return
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "axilogic:", err)
		os.Exit(1)
	}
}

func run() error {
	runID := uuid.New()
	v := vm.New()
	if err := kit.Bootstrap(v); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if err := v.AssertClean(); err != nil {
		return fmt.Errorf("bootstrap left the machine dirty: %w", err)
	}
	fmt.Printf("run %s: bootstrap complete\n", runID)
	for _, name := range []string{"sys::imply", "sys::not", "sys::l1", "sys::l2", "sys::l3"} {
		_, isReal, ok := v.Lookup(name)
		if !ok {
			return fmt.Errorf("expected %s to be registered after bootstrap", name)
		}
		kindLabel := "hypothesis"
		if isReal {
			kindLabel = "theorem"
		}
		fmt.Printf("%-14s %s\n", name, kindLabel)
	}
	return nil
}

func showUsage() {
	fmt.Println(`axilogic -- a Hilbert-style proof verification kernel

Usage:
  axilogic            boot a VM, install the axiom bootstrap, list symbols
  axilogic --version   print the version
  axilogic --help      show this message

This binary is a smoke test for the kernel, not a proof language driver:
it does not read or check any proof source file.`)
}
