package main

import "cardtable/cmd"

func main() {
	cmd.Execute()
}
