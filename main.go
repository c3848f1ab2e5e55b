package main

import "github.com/Rorical/RoriAge/cmd"

func main() {
	cmd.Execute()
}
