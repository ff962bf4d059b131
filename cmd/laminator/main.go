package main

import "github.com/oshokin/laminator/cmd/laminator/cmd"

func main() {
	cmd.Execute()
}
