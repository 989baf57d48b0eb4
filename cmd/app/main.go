package main

import "pegfall/internal/cli"

func main() {
	cli.Execute()
}
