// Package loader implements the Loader Installer (spec §4.12): stages
// the 3DMigoto-style d3d11.dll proxy (and optionally ReShade) into a
// game directory, or keeps them confined to a per-game library
// directory for the Loader injection strategy, and removes everything
// it installed on uninstall.
//
// Grounded on crates/loader_ctl/src/context.rs.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"yago/internal/yagoerr"
)

// Method selects where the loader payload is staged (spec §4.12).
type Method string

const (
	MethodProxy      Method = "Proxy"
	MethodReShadeOnly Method = "ReShadeOnly"
	MethodLoader     Method = "Loader"
)

// Options parameterizes Install (spec §4.12).
type Options struct {
	Method         Method
	GameDir        string
	LibraryGameDir string // per-game loader payload source (Proxy/Loader)
	LibraryCommonDir string // shared payloads (ReShade)
	GameExecutable string
	InstallReShade bool
}

var supportDirs = []string{"Core", "ShaderFixes"}
var proxyCompilers = []string{"d3dcompiler_47.dll", "d3dcompiler_46.dll"}

// uninstallFiles is the closed set of filenames Uninstall removes (spec
// §4.12). Any other file in the game directory is left untouched.
var uninstallFiles = []string{
	"d3d11.dll", "dxgi.dll", "version.dll", "winmm.dll",
	"d3dcompiler_47.dll", "d3dcompiler_46.dll",
	"ReShade.dll", "d3dx.ini", "ReShade.ini",
	"3dmloader.dll", "3dmloader.exe",
}
var uninstallDirs = []string{"Core", "ShaderFixes", "Mods"}

// Install stages the loader per opts.Method (spec §4.12).
func Install(opts Options) error {
	switch opts.Method {
	case MethodReShadeOnly:
		return installReShadeOnly(opts)
	case MethodLoader:
		// Files are staged by quartermaster-equivalent download logic into
		// LibraryGameDir already; patching targets that directory's
		// d3dx.ini instead of the game directory's.
		return patchLoaderINI(filepath.Join(opts.LibraryGameDir, "d3dx.ini"), opts)
	case MethodProxy:
		return installProxy(opts)
	default:
		return yagoerr.New(yagoerr.Invalid, fmt.Sprintf("loader: unknown method %q", opts.Method))
	}
}

func installReShadeOnly(opts Options) error {
	reshadeSource := findReShadeSource(opts.LibraryCommonDir)
	if reshadeSource != "" {
		if err := copyFile(reshadeSource, filepath.Join(opts.GameDir, "dxgi.dll")); err != nil {
			return yagoerr.Wrap(yagoerr.Invalid, "install reshade as dxgi.dll", err)
		}
	}
	d3d11 := filepath.Join(opts.GameDir, "d3d11.dll")
	if _, err := os.Stat(d3d11); err == nil {
		_ = os.Remove(d3d11)
	}
	return nil
}

func installProxy(opts Options) error {
	sourceDLL := filepath.Join(opts.LibraryGameDir, "d3d11.dll")
	if _, err := os.Stat(sourceDLL); err != nil {
		return yagoerr.New(yagoerr.NotFound, fmt.Sprintf("loader: d3d11.dll not found in %s", opts.LibraryGameDir))
	}
	if err := copyFile(sourceDLL, filepath.Join(opts.GameDir, "d3d11.dll")); err != nil {
		return yagoerr.Wrap(yagoerr.Invalid, "install proxy dll", err)
	}

	sourceINI := filepath.Join(opts.LibraryGameDir, "d3dx.ini")
	if _, err := os.Stat(sourceINI); err == nil {
		targetINI := filepath.Join(opts.GameDir, "d3dx.ini")
		if err := copyFile(sourceINI, targetINI); err != nil {
			return yagoerr.Wrap(yagoerr.Invalid, "install proxy ini", err)
		}
		if err := patchLoaderINI(targetINI, opts); err != nil {
			return yagoerr.Wrap(yagoerr.Invalid, "patch proxy ini", err)
		}
	}

	for _, dir := range supportDirs {
		source := filepath.Join(opts.LibraryGameDir, dir)
		if _, err := os.Stat(source); err != nil {
			continue
		}
		target := filepath.Join(opts.GameDir, dir)
		_ = os.RemoveAll(target)
		if err := os.Symlink(source, target); err != nil {
			return yagoerr.Wrap(yagoerr.Invalid, fmt.Sprintf("link %s", dir), err)
		}
	}

	for _, comp := range proxyCompilers {
		source := filepath.Join(opts.LibraryGameDir, comp)
		if _, err := os.Stat(source); err == nil {
			_ = copyFile(source, filepath.Join(opts.GameDir, comp))
		}
	}

	if opts.InstallReShade {
		reshadeSource := findReShadeSource(opts.LibraryCommonDir)
		if reshadeSource != "" {
			if err := copyFile(reshadeSource, filepath.Join(opts.GameDir, "dxgi.dll")); err != nil {
				return yagoerr.Wrap(yagoerr.Invalid, "install reshade alongside proxy", err)
			}
		}
	}

	return nil
}

func findReShadeSource(commonDir string) string {
	for _, name := range []string{"ReShade.dll", "reshade.dll"} {
		p := filepath.Join(commonDir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var (
	targetLineRe = regexp.MustCompile(`(?im)^(target\s*=\s*).*$`)
	moduleLineRe = regexp.MustCompile(`(?im)^(module\s*=\s*).*$`)
)

// patchLoaderINI sets [Loader] target and module so the proxy DLL loads
// passively into the game executable (spec §4.12 "patch it so [Loader]
// target = <game_exe> and [Loader] module = d3d11.dll").
func patchLoaderINI(path string, opts Options) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return yagoerr.Wrap(yagoerr.Invalid, "read loader ini", err)
	}
	text := string(content)
	text = targetLineRe.ReplaceAllString(text, "${1}"+opts.GameExecutable)
	text = moduleLineRe.ReplaceAllString(text, "${1}d3d11.dll")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return yagoerr.Wrap(yagoerr.Invalid, "write loader ini", err)
	}
	return nil
}

// Uninstall removes the closed set of loader-owned filenames and
// support directories from the game directory. Any other file is left
// untouched (spec §4.12).
func Uninstall(gameDir string) error {
	for _, name := range uninstallFiles {
		p := filepath.Join(gameDir, name)
		if _, err := os.Stat(p); err == nil {
			_ = os.Remove(p)
		}
	}
	for _, name := range uninstallDirs {
		p := filepath.Join(gameDir, name)
		if _, err := os.Lstat(p); err == nil {
			_ = os.RemoveAll(p)
		}
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
