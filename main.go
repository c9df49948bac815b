package main

import "github.com/vibecli/vibe/cmd"

func main() {
	cmd.Execute()
}
