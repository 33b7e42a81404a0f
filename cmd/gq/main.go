package main

import "growthquest/cmd/gq/root"

func main() {
	root.Execute()
}
