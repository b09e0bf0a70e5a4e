package main

import "github.com/AbhiJ2706/cs489-project/cmd"

func main() {
	cmd.Execute()
}
