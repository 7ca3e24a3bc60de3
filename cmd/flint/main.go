// Package main provides the Flint ML Framework CLI.
package main

import (
	"fmt"
	"os"

	_ "github.com/flint-ml/flint/backend/cpu"
	"github.com/flint-ml/flint/dispatch"
	"github.com/flint-ml/flint/tensor"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Flint ML Framework %s\n", version)
			return
		case "backends":
			printBackends()
			return
		}
	}

	fmt.Println("Flint ML Framework - Operator Dispatch Core for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version     Show version")
	fmt.Println("  backends    Show backend and scalar type availability")
}

// printBackends probes the dispatch registry for every (backend, scalar type)
// pair, triggering lazy initialization as a side effect.
func printBackends() {
	reg := dispatch.Global()
	for b := tensor.Backend(0); b != tensor.UndefinedBackend; b++ {
		var enabled []string
		for s := tensor.ScalarType(0); s != tensor.UndefinedScalar; s++ {
			if _, err := reg.Lookup(b, s, false); err == nil {
				enabled = append(enabled, s.String())
			}
		}
		if len(enabled) == 0 {
			fmt.Printf("%-12s unavailable\n", b)
			continue
		}
		fmt.Printf("%-12s %v\n", b, enabled)
	}
}
