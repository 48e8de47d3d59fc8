package main

import (
	"os"

	"github.com/teranos/codegen/cmd/codegen/commands"
)

func main() {
	os.Exit(commands.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
