package main

// Version and BuildID are set at release time; "dev" is the unreleased
// default, matching the teacher's version.go before go:generate runs.
var (
	Version = "dev"
	BuildID = "dev"
)
