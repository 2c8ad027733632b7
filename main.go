package main

import "github.com/mergington/announcements/cmd"

func main() {
	cmd.Execute()
}
