package main

import (
	"context"
	"os"

	leoniacmder "github.com/papercomputeco/leonia/cmd/leonia"
)

func main() {
	cmd := leoniacmder.NewLeoniaCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
