package main

import "github.com/vietddude/jobctl/internal/cli"

func main() {
	cli.Execute()
}
