package main

import "ttlpanel/cmd"

func main() {
	cmd.Execute()
}
