package main

import "github.com/forPelevin/cuetrack/internal/cli"

func main() {
	cli.Main()
}
