package main

import "github.com/cowriter/vox2midi/cmd"

func main() {
	cmd.Execute()
}
