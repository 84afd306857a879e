package main

import (
	"os"

	servecmder "github.com/papercomputeco/cliptape/cmd/cliptape/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()
	cmd.Use = "cliptaped"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .cliptape/ directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
