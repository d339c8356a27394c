package main

import "github.com/pkgw/ttdeploy/cmd/ttdeploy/cmd"

func main() {
	cmd.Execute()
}
