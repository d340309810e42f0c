package main

import "docpack/cmd"

func main() {
	cmd.Execute()
}
