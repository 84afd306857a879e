package main

import (
	"os"

	cliptapecmder "github.com/papercomputeco/cliptape/cmd/cliptape"
)

func main() {
	cmd := cliptapecmder.NewCliptapeCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
