package main

import "github.com/replibyte/releaser/cmd/release-branch/cmd"

func main() {
	cmd.Execute()
}
