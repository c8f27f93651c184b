// Command bemrename-train is the thinnest possible collaborator over
// internal/training: it reads an NDJSON corpus from a path and feeds it
// through Store.Load, reporting how many records loaded and how many
// fingerprint/pattern entries the result carries, so the load path has
// at least one real end-to-end caller outside of tests.
package main

import (
	"fmt"
	"os"

	"github.com/fieldbem/pdfrename/internal/training"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <corpus.ndjson>\n", os.Args[0])
		os.Exit(1)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	records, err := training.LoadNDJSON(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	store := training.Load(records)

	fmt.Printf("records read:    %d\n", len(records))
	fmt.Printf("records indexed: %d\n", len(store.Records()))
	fmt.Printf("patterns mined:  %d\n", len(store.Patterns()))
	if discarded := len(records) - len(store.Records()); discarded > 0 {
		fmt.Printf("discarded (grammar-invalid approved_name): %d\n", discarded)
	}
}
