package main

import (
	"os"

	"github.com/dirsync/dirsync/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
