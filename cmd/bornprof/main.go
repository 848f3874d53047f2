package main

import "github.com/born-ml/bornprof/internal/cli"

func main() {
	cli.Execute()
}
