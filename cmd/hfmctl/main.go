package main

import (
	"os"

	"github.com/bnema/hfmctl/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
