package main

import "github.com/KaramelBytes/pandenem/cmd"

func main() {
	cmd.Execute()
}
