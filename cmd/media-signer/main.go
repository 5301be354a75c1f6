package main

import "github.com/oshokin/media-release/cmd/media-signer/cmd"

func main() {
	cmd.Execute()
}
