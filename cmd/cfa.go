package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"pdrcheck/internal/block"
	"pdrcheck/internal/program"
	"pdrcheck/internal/property"

	"github.com/spf13/cobra"
)

var cfaFile string

var cfaCommand = &cobra.Command{
	Use:   "cfa",
	Short: "print the locations and blocks of a program",
	Long:  ``,
	Run: func(*cobra.Command, []string) {
		if err := printCFA(cfaFile, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "cfa failed: %v\n", err)
			os.Exit(exitError)
		}
	},
}

func init() {
	cfaCommand.Flags().StringVar(&cfaFile, "file", "", "program file (yaml)")
}

func printCFA(file string, w io.Writer) error {
	c, err := program.Load(file)
	if err != nil {
		return err
	}
	targets, err := property.NewDefaultManager().Targets(c)
	if err != nil {
		return err
	}
	isTarget := make(map[int]bool, len(targets))
	for _, loc := range targets {
		isTarget[int(loc)] = true
	}

	vars := make([]string, len(c.Vars()))
	for i, v := range c.Vars() {
		vars[i] = fmt.Sprintf("%s:%s", v.Name, v.Type)
	}
	fmt.Fprintf(w, "cfa %s (%s)\n", c.Name(), strings.Join(vars, ", "))
	fmt.Fprintln(w, "locations:")
	for _, loc := range c.Locations() {
		var marks []string
		if loc == c.Start() {
			marks = append(marks, "start")
		}
		if isTarget[int(loc)] {
			marks = append(marks, "target")
		}
		fmt.Fprintf(w, "  L%d %s %s", loc, c.LocationName(loc), c.Kind(loc))
		if len(marks) > 0 {
			fmt.Fprintf(w, " [%s]", strings.Join(marks, ", "))
		}
		fmt.Fprintln(w)
		for _, p := range c.Predicates(loc) {
			fmt.Fprintf(w, "    predicate %s\n", p)
		}
	}
	fmt.Fprintln(w, "blocks:")
	for _, b := range block.FromCFA(c).All() {
		fmt.Fprintf(w, "  %s\n", b)
	}
	return nil
}
