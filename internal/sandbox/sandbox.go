// Package sandbox implements the Sandbox Snapshot (spec §4.14):
// restoring save-adjacent files and a registry hive into a game
// directory before a run, and snapshotting them back to per-profile
// storage afterward.
//
// Grounded on crates/proc_marshal/src/sandbox.rs.
package sandbox

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"yago/internal/launch"
	"yago/internal/yagoerr"
)

// Descriptor names what a sandboxed profile saves and restores (spec
// §4.14): a set of game-relative files, and a set of registry keys
// (Windows-runner profiles only).
type Descriptor struct {
	Files        []string
	RegistryKeys []string
}

const registryFileName = "registry.reg"

// Restore copies each configured file from profileDataDir into gameDir
// and imports registry.reg (if present) via the runner's registry tool.
// Missing source files are skipped, not errors (spec §4.14 mirrors the
// copy-if-present semantics of the original restore step).
func Restore(gameDir, profileDataDir string, desc Descriptor, runner launch.Runner, prefixPath string) error {
	for _, rel := range desc.Files {
		source := filepath.Join(profileDataDir, rel)
		dest := filepath.Join(gameDir, rel)
		if _, err := os.Stat(source); err != nil {
			continue
		}
		if err := copyFile(source, dest); err != nil {
			return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("restore file %s", rel), err)
		}
	}

	regFile := filepath.Join(profileDataDir, registryFileName)
	if _, err := os.Stat(regFile); err == nil {
		if err := importRegistry(regFile, runner, prefixPath); err != nil {
			return yagoerr.Wrap(yagoerr.Invalid, "restore registry", err)
		}
	}
	return nil
}

// Snapshot copies each configured file from gameDir back into
// profileDataDir and exports the configured registry keys via the
// runner's registry tool.
func Snapshot(gameDir, profileDataDir string, desc Descriptor, runner launch.Runner, prefixPath string) error {
	if err := os.MkdirAll(profileDataDir, 0o755); err != nil {
		return yagoerr.Wrap(yagoerr.Invalid, "create profile data dir", err)
	}

	for _, rel := range desc.Files {
		source := filepath.Join(gameDir, rel)
		dest := filepath.Join(profileDataDir, rel)
		if _, err := os.Stat(source); err != nil {
			continue
		}
		if err := copyFile(source, dest); err != nil {
			return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("snapshot file %s", rel), err)
		}
	}

	if len(desc.RegistryKeys) == 0 {
		return nil
	}
	regFile := filepath.Join(profileDataDir, registryFileName)
	if err := exportRegistry(regFile, desc.RegistryKeys, runner, prefixPath); err != nil {
		return yagoerr.Wrap(yagoerr.Invalid, "snapshot registry", err)
	}
	return nil
}

func copyFile(source, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func wineBinary(runner launch.Runner) string {
	if runner.Type == launch.RunnerProton {
		return filepath.Join(filepath.Dir(runner.Path), "bin", "wine")
	}
	return "wine"
}

func importRegistry(regFile string, runner launch.Runner, prefixPath string) error {
	if runner.Type == launch.RunnerNative {
		cmd := exec.Command("reg", "import", regFile)
		return cmd.Run()
	}
	cmd := exec.Command(wineBinary(runner), "regedit", "/s", regFile)
	cmd.Env = append(os.Environ(), "WINEPREFIX="+prefixPath)
	return cmd.Run()
}

// exportRegistry exports each configured key to a temporary .reg file
// via the runner's registry tool. Per spec §4.14 "the first key wins in
// this revision": only the first key's export becomes registry.reg;
// later keys are exported (so the runner call isn't skipped) but
// discarded, a known limitation carried over unchanged from the
// original implementation rather than solved here.
func exportRegistry(regFile string, keys []string, runner launch.Runner, prefixPath string) error {
	for i, key := range keys {
		tmp := fmt.Sprintf("%s.part%d.reg", regFile, i)

		var cmd *exec.Cmd
		if runner.Type == launch.RunnerNative {
			cmd = exec.Command("reg", "export", key, tmp, "/y")
		} else {
			cmd = exec.Command(wineBinary(runner), "regedit", "/e", tmp, key)
			cmd.Env = append(os.Environ(), "WINEPREFIX="+prefixPath)
		}
		if err := cmd.Run(); err != nil {
			return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("export key %s", key), err)
		}

		if i == 0 {
			if _, err := os.Stat(tmp); err == nil {
				if err := copyFile(tmp, regFile); err != nil {
					return yagoerr.Wrap(yagoerr.Invalid, "copy exported registry file", err)
				}
			}
		}
		os.Remove(tmp)
	}
	return nil
}
