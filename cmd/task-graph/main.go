package main

import "github.com/LENAX/task-graph/pkg/cli/cmd"

func main() {
	cmd.Execute()
}
