package main

import "github.com/gaurav-prasanna/pagebrief/cmd"

func main() {
	cmd.Execute()
}
