// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

/*
Package inject replaces archive entries with edited asset files.

A [Session] routes each file by extension to a handler that stages the
new bytes on an [ovl.Patch]; the patch is committed only when the whole
file succeeded. Files are processed best-effort: a failure is recorded in
the file's [Result] and the batch continues.

	s, err := inject.NewSession(inject.Options{Archive: archive, Logger: logger})
	if err != nil {
		return err
	}
	defer s.Close()

	report := s.Inject(ctx, files)
	if err := report.Err(); err != nil {
		log.Print(err)
	}

Models, materials and material collections are decoded by codecs supplied
through [Options]. PNG input is converted to DDS by a [Transcoder], by
default [Texconv].
*/
package inject
