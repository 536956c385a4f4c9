package main

import "github.com/jsphweid/floppydaw/cmd"

func main() {
	cmd.Execute()
}
