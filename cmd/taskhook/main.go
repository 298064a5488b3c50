package main

import "github.com/taskhook-project/taskhook/internal/cli"

func main() {
	cli.Execute()
}
