package main

import "visitor-sync/cmd"

func main() {
	cmd.Execute()
}
