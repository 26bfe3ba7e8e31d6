// The main package for the prism-catalog-builder executable.
package main

import (
	"github.com/climate-tools/prism-catalog-builder/cmd"
)

// main is the entry point of the application.
// It hands control straight to the Cobra CLI layer.
func main() {
	cmd.Execute()
}
