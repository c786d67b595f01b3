package main

import (
	"os"

	"github.com/inkwell-io/inkwell/server/inkwellservice"
)

func main() {
	if err := inkwellservice.Run(); err != nil {
		os.Exit(1)
	}
}
