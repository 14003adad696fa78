package main

import "github.com/conorfennell/srs/internal/cli"

func main() {
	cli.Execute()
}
