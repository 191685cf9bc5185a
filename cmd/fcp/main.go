package main

import "github.com/jvs-project/fcp/internal/cli"

func main() {
	cli.Execute()
}
