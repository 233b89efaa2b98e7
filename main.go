package main

import "github.com/sigeo-niteroi/dowatch/cmd"

func main() {
	cmd.Execute()
}
