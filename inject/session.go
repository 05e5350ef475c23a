// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package inject

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ovl "github.com/suprsokr/go-ovl"
)

// Archive looks up entries by name. Missing entries must wrap
// ovl.ErrNotFound.
type Archive interface {
	Entry(name string) (*ovl.Entry, error)
}

// Options configures a Session. Only Archive is required; kinds whose
// codec or transcoder is missing fail with ErrNoCodec.
type Options struct {
	Archive Archive

	Models      ModelCodec
	Materials   MaterialCodec
	Collections MaterialCollectionCodec
	Transcoder  Transcoder

	// KeepIntermediate keeps the DDS files converted from PNG input next
	// to their source instead of in the session work directory.
	KeepIntermediate bool

	// WorkDir is the parent of the session work directory. Empty means
	// the system temp directory.
	WorkDir string

	Logger zerolog.Logger
}

// Result is the outcome of injecting one file.
type Result struct {
	File  string
	Kind  Kind
	Entry string

	// Err is nil when the file was injected. A failed file leaves its
	// entries unchanged.
	Err error

	// Skipped is set when an earlier file of the batch was already
	// injected into the same entry. Failed files do not claim their entry.
	Skipped bool

	// Warnings are problems that did not stop the injection, such as a
	// packed mip chain whose length differs from the declared buffers.
	Warnings []error

	Underflows []ovl.Underflow
}

// OK reports whether the file was injected.
func (r Result) OK() bool { return r.Err == nil && !r.Skipped }

// Report collects the results of a batch in input order.
type Report struct {
	Session uuid.UUID
	Results []Result
}

// Failed returns the results whose injection failed.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Err joins the errors of every failed file, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(res.File), res.Err))
	}
	return errors.Join(errs...)
}

// Session injects files into one archive. It is not safe for concurrent
// use.
type Session struct {
	opts    Options
	id      uuid.UUID
	workDir string
	log     zerolog.Logger
	seen    map[string]string // lower-case entry name -> injected file
}

// NewSession creates a session and its work directory.
func NewSession(opts Options) (*Session, error) {
	if opts.Archive == nil {
		return nil, errors.New("inject: session needs an archive")
	}
	id := uuid.New()
	workDir, err := os.MkdirTemp(opts.WorkDir, "ovlinject-"+id.String()[:8]+"-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	return &Session{
		opts:    opts,
		id:      id,
		workDir: workDir,
		log:     opts.Logger.With().Str("session", id.String()).Logger(),
		seen:    make(map[string]string),
	}, nil
}

// ID returns the session id attached to every log line.
func (s *Session) ID() uuid.UUID { return s.id }

// WorkDir returns the directory holding intermediate files.
func (s *Session) WorkDir() string { return s.workDir }

// Close removes the work directory.
func (s *Session) Close() error {
	if s.workDir == "" {
		return nil
	}
	err := os.RemoveAll(s.workDir)
	s.workDir = ""
	return err
}

// Inject injects every path in order. A failed file is recorded and the
// batch continues; cancelling ctx fails the files not yet started.
func (s *Session) Inject(ctx context.Context, paths []string) *Report {
	report := &Report{Session: s.id, Results: make([]Result, 0, len(paths))}
	for _, path := range paths {
		report.Results = append(report.Results, s.InjectFile(ctx, path))
	}
	failed := len(report.Failed())
	s.log.Info().Int("files", len(paths)).Int("failed", failed).Msg("batch done")
	return report
}

// InjectFile injects one file. Every write for the file is staged and
// applied only when the whole file succeeded.
func (s *Session) InjectFile(ctx context.Context, path string) Result {
	res := Result{File: path}
	log := s.log.With().Str("file", filepath.Base(path)).Logger()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	kind, err := KindFromPath(path)
	if err != nil {
		res.Err = err
		log.Error().Err(err).Msg("skipping file")
		return res
	}
	res.Kind = kind
	res.Entry = kind.EntryName(path)

	key := strings.ToLower(res.Entry)
	if first, ok := s.seen[key]; ok {
		res.Skipped = true
		log.Warn().Str("entry", res.Entry).Str("first", filepath.Base(first)).Msg("entry already injected in this batch, skipping")
		return res
	}

	log = log.With().Str("kind", kind.String()).Str("entry", res.Entry).Logger()
	log.Info().Msg("injecting")

	entry, err := s.opts.Archive.Entry(res.Entry)
	if err != nil {
		res.Err = fmt.Errorf("look up %s: %w", res.Entry, err)
		log.Error().Err(res.Err).Msg("injection failed")
		return res
	}

	j := &job{
		ctx:    ctx,
		path:   path,
		entry:  entry,
		patch:  ovl.NewPatch(),
		log:    log,
		result: &res,
	}
	if err := handlers[kind](s, j); err != nil {
		res.Err = err
		log.Error().Err(err).Msg("injection failed")
		return res
	}

	j.patch.Commit()
	s.seen[key] = path
	res.Underflows = j.patch.Underflows()
	for _, u := range res.Underflows {
		log.Warn().Int("buffer", u.Buffer).Int("missing", u.Missing()).Int("declared", u.Declared).Msg("buffer not fully overwritten")
	}
	log.Debug().Int("writes", j.patch.Len()).Msg("injected")
	return res
}

// job is the state of one file while its handler runs.
type job struct {
	ctx    context.Context
	path   string
	entry  *ovl.Entry
	patch  *ovl.Patch
	log    zerolog.Logger
	result *Result
}

func (j *job) warn(err error) {
	j.result.Warnings = append(j.result.Warnings, err)
	j.log.Warn().Err(err).Msg("injected with warning")
}
