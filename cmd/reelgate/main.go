package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// A canceled context means the user interrupted a running command;
		// the interruption itself is the message.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "reelgate:", err)
		}
		os.Exit(1)
	}
}
