package main

import "foodgram/cmd/admin/command"

func main() {
	command.Execute()
}
