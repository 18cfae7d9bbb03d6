package main

import (
	"os"

	playbackcmder "github.com/papercomputeco/playback/cmd/playback"
)

func main() {
	cmd := playbackcmder.NewPlaybackCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
