package main

import "github.com/oshokin/media-release/cmd/media-packager/cmd"

func main() {
	cmd.Execute()
}
