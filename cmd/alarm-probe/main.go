package main

import "github.com/oshokin/alarm-gateway/cmd/alarm-probe/cmd"

func main() {
	cmd.Execute()
}
