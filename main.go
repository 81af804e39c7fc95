package main

import "reel-audio/cmd"

func main() {
	cmd.Execute()
}
