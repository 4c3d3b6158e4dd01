package main

import "hakbang/internal/cli"

func main() {
	cli.Execute()
}
