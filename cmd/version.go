package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	BuildBranch  string
	BuildVersion string
	BuildTime    string
	Builder      string
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "show version",
	Long:  ``,
	Run: func(*cobra.Command, []string) {
		printVersion(os.Stdout)
	},
}

func printVersion(w io.Writer) {
	for _, field := range []struct {
		name, value string
	}{
		{"BuildBranch", BuildBranch},
		{"BuildVersion", BuildVersion},
		{"BuildTime", BuildTime},
		{"Builder", Builder},
		{"GoVersion", runtime.Version()},
	} {
		fmt.Fprintf(w, "\033[36m%-16s\033[0m %s\n", field.name, field.value)
	}
}
