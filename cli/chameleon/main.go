package main

import (
	"os"

	chameleoncmder "github.com/papercomputeco/chameleon/cmd/chameleon"
)

func main() {
	cmd := chameleoncmder.NewChameleonCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
