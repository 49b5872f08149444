package main

import "github.com/mvp-joe/code-xref/internal/cli"

func main() {
	cli.Execute()
}
