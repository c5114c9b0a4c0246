package main

import (
	"os"

	"github.com/banux/tcg-kiosk/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
