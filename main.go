package main

import (
	"os"

	"github.com/jandubois/check-kannel/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
