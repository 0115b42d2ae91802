package main

import "filelens/cmd"

func main() {
	cmd.Execute()
}
