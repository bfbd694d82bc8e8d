package main

import "github.com/munidoc-labs/amtsrag/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
