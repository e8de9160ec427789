package main

import (
	"os"

	"github.com/aranyoray/studybot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
