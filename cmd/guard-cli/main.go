package main

import "guard-core/cmd/guard-cli/cmd"

func main() {
	cmd.Execute()
}
