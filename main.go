package main

import "github.com/iksnae/careertrack/cmd"

func main() {
	cmd.Execute()
}
