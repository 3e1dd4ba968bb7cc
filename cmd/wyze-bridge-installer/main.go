package main

import "github.com/GiZZoR/wyze-bridge-installer/cmd/wyze-bridge-installer/cmd"

func main() {
	cmd.Execute()
}
