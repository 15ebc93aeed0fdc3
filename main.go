package main

import "github.com/kindaran/pia-stats/internal/cmd"

func main() {
	cmd.Execute()
}
