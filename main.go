// File: /main.go
package main

import (
	"context"
	"fmt"
	"os"

	"quillpost-api/cmd"
)

func main() {
	if err := cmd.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
