package main

import (
	"stream2text/cmd/s2t/cmd"
)

func main() {
	cmd.Execute()
}
