package main

import "github.com/Tiliavir/trivial-activity-tracker/cmd"

func main() {
	cmd.Execute()
}
