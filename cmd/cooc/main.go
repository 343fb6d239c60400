// Command cooc counts windowed co-occurrences over a corpus within a memory
// budget and queries the results.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
