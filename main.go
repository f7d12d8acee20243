package main

import "github.com/theirongolddev/tripbudget/cmd"

func main() {
	cmd.Execute()
}
