package main

import (
	"os"

	"github.com/contexture-ai/contexture/cmd/contexture"
)

func main() {
	if err := contexture.Execute(); err != nil {
		os.Exit(1)
	}
}
