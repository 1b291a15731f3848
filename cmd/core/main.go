// Package main provides the ClubTrack Go Core library entry point.
// The core is platform-agnostic and is embedded by the desktop and mobile
// shells; this binary only reports the build.
package main

import (
	"fmt"
	"log"
)

// Version is set at build time
var Version = "0.1.0"

func main() {
	fmt.Printf("ClubTrack Core v%s\n", Version)
	log.Println("ClubTrack Go Core - offline operation queue and sync engine")
}
