package main

import (
	"os"

	"github.com/igorsilveira/ticktock/cmd/ticktock"
)

func main() {
	if err := ticktock.Execute(); err != nil {
		os.Exit(1)
	}
}
