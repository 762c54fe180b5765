package main

import "github.com/oshokin/sleep-clock/cmd/sleepclock-server/cmd"

func main() {
	cmd.Execute()
}
