// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

/*
Package container stores OVL entries, their pointer layout and their data
buffers in a single file so that injected archives can be opened, patched
and saved again.

A container file is an 88-byte little-endian header, the archive body and
a hashed name index:

	header  magic "OVLC", version, compression, entry count,
	        body offset and sizes, name index offset and slot count,
	        BLAKE3-256 digest of the uncompressed body
	body    CBOR document of pointers, fragments and entries,
	        optionally compressed with LZ4 or zstd
	index   open-addressed slots {hashA, hashB, entry}

Entry names are looked up case-insensitively. Every entry of an archive
shares the archive's [ovl.Layout]; build new entries on [Archive.Layout].

Example:

	a, err := container.Open("terrain.ovlc")
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	e, err := a.Entry("rock.tex")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(e.Data.Size())
*/
package container
