package main

import "github.com/hurou927/db-dump/cmd"

func main() {
	cmd.Execute()
}
