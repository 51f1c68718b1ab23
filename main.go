package main

import "github.com/theirongolddev/adrec/cmd"

func main() {
	cmd.Execute()
}
