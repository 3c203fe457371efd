package main

import "github.com/martpipe/martpipe/cmd"

func main() {
	cmd.Execute()
}
