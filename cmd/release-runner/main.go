package main

import "github.com/replibyte/releaser/cmd/release-runner/cmd"

func main() {
	cmd.Execute()
}
