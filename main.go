package main

import "github.com/mberetvas/comspect/cmd"

func main() {
	cmd.Execute()
}
