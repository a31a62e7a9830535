package main

import (
	"syncmesh/cmd/client/cmd"
)

func main() {
	cmd.Execute()
}
