// The main package for the wodcrawler executable.
package main

import (
	"github.com/wodarchive/wodcrawler/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
