// Command perfctl queries a running Perfwatch server.
package main

import (
	"log"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	log.SetFlags(0)
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
