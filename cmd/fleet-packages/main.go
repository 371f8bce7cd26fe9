package main

import "fleet-packages/internal/cli"

func main() {
	cli.Execute()
}
