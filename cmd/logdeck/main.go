package main

import "github.com/atikulmunna/logdeck/internal/cmd"

func main() {
	cmd.Execute()
}
