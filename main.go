package main

import (
	"github.com/nexlify/healthwatch/cmd"
)

func main() {
	cmd.Execute()
}
