package main

import "github.com/habimana/parkgate/cmd/parkgate/command"

func main() {
	command.Execute()
}
