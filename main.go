package main

import "github.com/vibast-solutions/ms-go-mailqueue/cmd"

func main() {
	cmd.Execute()
}
