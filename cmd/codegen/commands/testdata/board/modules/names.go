package main

import (
	"codegen"
	"strings"
)

// Macro returns label as an upper case C identifier.
func Macro(label string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ",", "_").Replace(label))
}

// Define emits a C preprocessor definition.
func Define(name, value string) {
	codegen.Outl("#define " + Macro(name) + " " + value)
}
