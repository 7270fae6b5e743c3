package main

import "github.com/reviewrise/healthscan/cmd"

func main() {
	cmd.Execute()
}
