package main

import "github.com/tebraouisamy/presence-app/cmd/presenced/cmd"

func main() {
	cmd.Execute()
}
