package main

import "github.com/oshokin/media-release/cmd/media-release/cmd"

func main() {
	cmd.Execute()
}
