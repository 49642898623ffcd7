package main

import "github.com/OpenTraceLab/OpenTraceFPGA/cmd/otr/cmd"

func main() {
	cmd.Execute()
}
