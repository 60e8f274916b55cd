// Package main provides a one-shot utility for access token key generation.
//
// It emits the Ed25519 keypair used to sign and verify API bearer tokens.
package main

import (
	"os"

	"github.com/mangacollab/mangacollab/internal/platform/config"
	"github.com/mangacollab/mangacollab/internal/tools/tokenkey"
)

func main() {
	if err := tokenkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate access token key: %v", err)
	}
}
