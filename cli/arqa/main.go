package main

import (
	"os"

	arqacmder "github.com/arqalabs/arqa/cmd/arqa"
)

func main() {
	cmd := arqacmder.NewArqaCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
