package main

import (
	"github.com/alonsoveliz1/layton/cmd"
)

func main() {
	cmd.Execute()
}
