// Command people-finder prints the youngest people that can be reached on a
// US phone number, sorted by name.
//
// Usage:
//
//	people-finder --youngest 5
//
// Configuration is read from config/people-finder-<PEOPLE_ENV>.yaml with
// environment overrides (see internal/config). Results go to stdout as JSON,
// logs go to stderr.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		log.Error().Err(err).Msg("people-finder failed")
		os.Exit(1)
	}
}
