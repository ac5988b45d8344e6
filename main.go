package main

import "github.com/iksnae/jobtrack/cmd"

func main() {
	cmd.Execute()
}
