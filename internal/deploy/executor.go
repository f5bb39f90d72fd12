package deploy

import (
	"fmt"
	"os"
	"path/filepath"

	"yago/internal/yagoerr"
)

// DefaultOverlayDir is the mod-manager-owned folder name beneath the
// game directory (spec §4.10 "the overlay folder name (default Mods)").
const DefaultOverlayDir = "Mods"

// overlayName is the single directory under DefaultOverlayDir that the
// Executor owns exclusively; nothing else may write here (spec §3).
const overlayName = "YAGO"

// Execute realizes plan against gameDir/overlayDir/YAGO (spec §4.11):
//  1. ensure gameDir/overlayDir exists.
//  2. if gameDir/overlayDir/YAGO exists, remove it recursively — the
//     only directory this function is permitted to delete.
//  3. recreate it empty.
//  4. create every symlink, replacing anything already at its target.
//  5. write every generated file.
//
// overlayDir defaults to DefaultOverlayDir when empty. Any symlink
// creation error is fatal and returned immediately; a partial overlay is
// left in place rather than rolled back, since the next Execute wipes
// and retries (spec §4.11 "Failure semantics").
func Execute(plan *Plan, gameDir, overlayDir string) error {
	if overlayDir == "" {
		overlayDir = DefaultOverlayDir
	}
	modsDir := filepath.Join(gameDir, overlayDir)
	yagoDir := filepath.Join(modsDir, overlayName)

	if err := os.MkdirAll(modsDir, 0o755); err != nil {
		return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("ensure overlay parent %s", modsDir), err)
	}

	if _, err := os.Lstat(yagoDir); err == nil {
		// os.RemoveAll never descends through a symlinked directory: it
		// Lstats each entry and, finding a symlink rather than a
		// directory, unlinks it without following. This satisfies the
		// "refuse to follow external symlinks during delete" rule.
		if err := os.RemoveAll(yagoDir); err != nil {
			return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("remove prior overlay %s", yagoDir), err)
		}
	} else if !os.IsNotExist(err) {
		return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("stat prior overlay %s", yagoDir), err)
	}

	if err := os.MkdirAll(yagoDir, 0o755); err != nil {
		return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("create overlay %s", yagoDir), err)
	}

	for _, link := range plan.Symlinks {
		if err := createSymlink(yagoDir, link); err != nil {
			return err
		}
	}

	for _, gf := range plan.GeneratedFiles {
		if err := writeGeneratedFile(yagoDir, gf); err != nil {
			return err
		}
	}

	return nil
}

func createSymlink(yagoDir string, link SymlinkEntry) error {
	target := filepath.Join(yagoDir, link.RelLinkTarget)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("create parent for %s", link.RelLinkTarget), err)
	}
	if _, err := os.Lstat(target); err == nil {
		if err := os.Remove(target); err != nil {
			return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("replace existing link %s", link.RelLinkTarget), err)
		}
	}
	if err := os.Symlink(link.Source, target); err != nil {
		return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("symlink %s -> %s", link.RelLinkTarget, link.Source), err)
	}
	return nil
}

func writeGeneratedFile(yagoDir string, gf GeneratedFile) error {
	target := filepath.Join(yagoDir, gf.RelPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("create parent for %s", gf.RelPath), err)
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, gf.Bytes, 0o644); err != nil {
		return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("write %s", gf.RelPath), err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("finalize %s", gf.RelPath), err)
	}
	return nil
}
