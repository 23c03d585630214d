package main

import "github.com/bitandsolution/stadium-hospitality-sub000/cmd/hospitality/cmd"

func main() {
	cmd.Execute()
}
