package main

import "github.com/anupcshan/netmac/cmd/netmac/cmd"

func main() {
	cmd.Execute()
}
