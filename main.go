package main

import "github.com/umeshrajanna/deepship-api/cmd"

func main() {
	cmd.Execute()
}
