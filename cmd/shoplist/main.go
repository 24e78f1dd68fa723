package main

import "github.com/PepaPanda/uu-backend-project/cmd/shoplist/cmd"

func main() {
	cmd.Execute()
}
