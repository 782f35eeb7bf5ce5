package main

import (
	"os"

	"github.com/koustreak/catalogts/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
