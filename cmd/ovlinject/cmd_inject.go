// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/suprsokr/go-ovl/container"
	"github.com/suprsokr/go-ovl/inject"
)

var cmdInject = &cobra.Command{
	Use:   "inject ARCHIVE FILE...",
	Short: "Inject files into an archive",
	Long: `Inject files into an archive. Each file replaces the entry of the same
name: .png and .dds files replace .tex entries and .matcol files replace
.materialcollection entries. A file that fails leaves its entry unchanged
and the remaining files are still injected.

Models (.mdl2), materials (.fgm) and material collections (.matcol) need
decoders that this command does not include. Such files fail with "no
codec" and are reported like any other failed file; programs embedding
the inject package can supply the decoders.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runInject,
}

var flagInject struct {
	Out         string
	Texconv     string
	KeepDDS     bool
	Compression string
}

func init() {
	cmdMain.AddCommand(cmdInject)
	cmdInject.Flags().StringVarP(&flagInject.Out, "out", "o", "", "Write the patched archive here instead of over ARCHIVE")
	cmdInject.Flags().StringVar(&flagInject.Texconv, "texconv", "", "texconv executable used for PNG input")
	cmdInject.Flags().BoolVar(&flagInject.KeepDDS, "keep-dds", false, "Keep DDS files converted from PNG input next to their source")
	cmdInject.Flags().StringVar(&flagInject.Compression, "compression", "", "Body compression of the saved archive: none, lz4, zstd")
}

func runInject(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagInject.Texconv != "" {
		cfg.Texconv = flagInject.Texconv
	}
	if flagInject.KeepDDS {
		cfg.KeepIntermediate = true
	}
	if flagInject.Compression != "" {
		cfg.Container.Compression = flagInject.Compression
	}
	compression, err := container.ParseCompression(cfg.Container.Compression)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}

	archivePath := args[0]
	archive, err := container.Open(archivePath)
	if err != nil {
		return err
	}
	defer archive.Close()

	session, err := inject.NewSession(inject.Options{
		Archive:          archive,
		Transcoder:       inject.Texconv{Path: cfg.Texconv},
		KeepIntermediate: cfg.KeepIntermediate,
		WorkDir:          cfg.WorkDir,
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	report := session.Inject(ctx, args[1:])
	printReport(cmd.OutOrStdout(), report)

	injected := 0
	for _, res := range report.Results {
		if res.OK() {
			injected++
		}
	}
	if injected > 0 {
		out := flagInject.Out
		if out == "" {
			out = archivePath
		}
		archive.SetCompression(compression)
		if err := archive.Save(out); err != nil {
			return fmt.Errorf("save %s: %w", out, err)
		}
		logger.Info().Str("archive", out).Int("injected", injected).Msg("archive saved")
	}

	if failed := len(report.Failed()); failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(report.Results))
	}
	return nil
}

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
	skipColor = color.New(color.FgHiBlack)
)

func printReport(w io.Writer, report *inject.Report) {
	for _, res := range report.Results {
		name := filepath.Base(res.File)
		switch {
		case res.Err != nil:
			failColor.Fprintf(w, "FAIL  %s: %v\n", name, res.Err)
		case res.Skipped:
			skipColor.Fprintf(w, "SKIP  %s: %s already injected\n", name, res.Entry)
		case len(res.Warnings) > 0 || len(res.Underflows) > 0:
			warnColor.Fprintf(w, "WARN  %s -> %s\n", name, res.Entry)
			for _, warning := range res.Warnings {
				fmt.Fprintf(w, "      %v\n", warning)
			}
			for _, u := range res.Underflows {
				fmt.Fprintf(w, "      %s\n", u)
			}
		default:
			okColor.Fprintf(w, "OK    %s -> %s\n", name, res.Entry)
		}
	}
}
