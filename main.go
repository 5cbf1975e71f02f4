package main

import "charcha/client/cmd"

func main() {
	cmd.Execute()
}
