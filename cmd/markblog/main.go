package main

import "github.com/hypergopher/markblog/internal/cli"

func main() {
	cli.Execute()
}
