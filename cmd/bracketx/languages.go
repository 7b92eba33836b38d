package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phyten/bracketx/internal/bracket"
	"github.com/phyten/bracketx/internal/textutil"
)

func (a *app) languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Long:  "Lists every language and whether its angle brackets go through the angle policy.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeLanguages(cmd.OutOrStdout())
		},
	}
}

func writeLanguages(w io.Writer) error {
	langs := bracket.Languages()
	width := len("LANGUAGE")
	for _, l := range langs {
		width = max(width, textutil.VisibleWidth(l.String()))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", textutil.PadRight("LANGUAGE", width), "GENERICS")
	for _, l := range langs {
		generics := "no"
		if l.UsesAngleBracketsAsGenerics() {
			generics = "yes"
		}
		fmt.Fprintf(&b, "%s  %s\n", textutil.PadRight(l.String(), width), generics)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
