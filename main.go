package main

import "voicecmd/cmd"

func main() {
	cmd.Execute()
}
