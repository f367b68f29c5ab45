package main

import (
	"fmt"
	"os"

	"yamo/treasury/cmd/browse"
	"yamo/treasury/cmd/filter"
	"yamo/treasury/cmd/root"
	"yamo/treasury/cmd/sections"
	"yamo/treasury/cmd/serve"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(filter.Cmd)
	root.Cmd.AddCommand(browse.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(sections.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
