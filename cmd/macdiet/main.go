package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/infrastructure/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()
	root, closeFn := cli.NewRootCmd(cli.Options{Verbose: isVerbose()})

	err := root.ExecuteContext(ctx)
	if cerr := closeFn(); cerr != nil {
		fmt.Fprintln(os.Stderr, "warning: closing audit log:", cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return domain.ExitCode(err)
}

func isVerbose() bool {
	return strings.EqualFold(os.Getenv("MACDIET_DEBUG"), "1") || strings.EqualFold(os.Getenv("MACDIET_DEBUG"), "true")
}
