package main

import "github.com/kickai-team/kickai/cmd"

func main() {
	cmd.Execute()
}
