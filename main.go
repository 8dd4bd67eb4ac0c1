package main

import "github.com/nickolasww/nutriday/cmd/nutriday"

func main() {
	nutriday.Execute()
}
