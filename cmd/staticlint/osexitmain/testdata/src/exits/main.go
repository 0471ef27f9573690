package main

import (
	"os"
	"syscall"
)

func main() {
	defer cleanup()
	if len(os.Args) > 3 {
		syscall.Exit(2) // want `direct syscall.Exit call in main.main`
	}
	func() {
		os.Exit(0)
	}()
	os.Exit(1) // want `direct os.Exit call in main.main`
}

func cleanup() {}

func helper() {
	os.Exit(3)
}
