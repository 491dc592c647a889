package main

import "github.com/mpapenbr/track-dominance/cmd"

func main() {
	cmd.Execute()
}
