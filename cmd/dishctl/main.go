package main

import "github.com/eatly/dishes-api/cmd/dishctl/commands"

func main() {
	commands.Execute()
}
