package main

import (
	"os"
	"path/filepath"

	"github.com/rickgorman/git-duet/internal/cli"
)

func main() {
	os.Exit(cli.Execute(filepath.Base(os.Args[0]), os.Args[1:]))
}
