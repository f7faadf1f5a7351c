// Package unpack extracts installer payloads onto a target filesystem.
//
// A payload consists of a catalog of packs (resource "packs.info"), one
// concatenated content stream per pack ("packs/pack-<name>") and optional
// side-streams ("packs/<resource>") for repackaged archives and
// backreferenced content. The payload is reached through a
// [source.Provider]; providers exist for local directories, HTTP servers and
// OCI registries.
//
// # Quick Start
//
//	p, err := local.New("./payload")
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	u := unpack.New(p,
//	    unpack.WithQueue(queue.New()),
//	    unpack.WithLogger(logger),
//	)
//	res, err := u.Run(ctx, &unpack.InstallData{
//	    InstallPath:   "/opt/app",
//	    SelectedPacks: []string{"core", "docs"},
//	})
//
// # Extraction
//
// Packs are processed in catalog order and files in declared order on a
// single goroutine. Files that are deselected by a condition or platform
// constraint still advance the pack stream by their packed size. Each file is
// written to a temporary file next to its target and renamed into place, or,
// for blockable files, handed to the deferred [queue.Queue] which is
// executed once after every pack was extracted.
//
// # Interruption
//
// [Unpacker.Interrupt] may be called from another goroutine. It cancels the
// running extraction and waits, bounded by a timeout, until the worker has
// stopped. A run that was interrupted returns [ErrInterrupted].
//
// # Building Payloads
//
// Package payload writes payloads from pack definitions or a TOML manifest,
// and the unpack command wraps building, publishing and installing.
package unpack

//go:generate flatc --go --go-namespace fb -o internal schema/catalog.fbs
