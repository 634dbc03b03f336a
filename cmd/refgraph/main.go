// Package main provides the refgraph command.
package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/hanpama/refgraph/cmd/refgraph/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Error().Err(err).Msg("refgraph failed")
		os.Exit(1)
	}
}
