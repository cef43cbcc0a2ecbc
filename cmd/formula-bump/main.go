package main

import "github.com/replibyte/releaser/cmd/formula-bump/cmd"

func main() {
	cmd.Execute()
}
