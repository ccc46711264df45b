package main

import (
	"github.com/scrimline/scrimline-chat/internal/cli"
)

func main() {
	cli.Execute()
}
