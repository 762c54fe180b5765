package main

import "github.com/oshokin/sleep-clock/cmd/sleepclock/cmd"

func main() {
	cmd.Execute()
}
