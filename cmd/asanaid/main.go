package main

import "asanaid/cmd/asanaid/cmd"

func main() {
	cmd.Execute()
}
