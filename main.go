package main

import "github.com/aerotools/cartconv/cmd"

func main() {
	cmd.Execute()
}
