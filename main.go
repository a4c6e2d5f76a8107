package main

import "github.com/voicedroplab/voicedrop/cmd"

func main() {
	cmd.Execute()
}
