package main

import "membench/cmd"

func main() {
	cmd.Execute()
}
