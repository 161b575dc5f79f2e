// Command gamatch finds a template region inside an image with a genetic search
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gamatch: %v\n", err)
		os.Exit(1)
	}
}
