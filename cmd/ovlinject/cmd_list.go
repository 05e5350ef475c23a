// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/suprsokr/go-ovl/container"
)

var cmdList = &cobra.Command{
	Use:   "list ARCHIVE...",
	Short: "List the entries of an archive",
	Long: `List the entries of an archive. With several archives the later ones
take priority, as a patch archive does over its base, and each entry is
shown from the archive that provides it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runList,
}

func init() {
	cmdMain.AddCommand(cmdList)
}

func runList(cmd *cobra.Command, args []string) error {
	chain, err := container.OpenChain(args)
	if err != nil {
		return err
	}
	defer chain.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENTRY\tPOINTERS\tFRAGMENTS\tBUFFERS\tSIZE\tARCHIVE")
	for _, name := range chain.Names() {
		e, err := chain.Entry(name)
		if err != nil {
			return err
		}
		src, _ := chain.Source(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\n",
			e.Name, len(e.Pointers), len(e.Fragments), len(e.Data.Buffers),
			humanize.IBytes(uint64(e.Data.Size())), filepath.Base(src))
	}
	return w.Flush()
}
