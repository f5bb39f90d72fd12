// Package launch implements the Launch Controller (spec §4.13):
// assembles the wrapper-chain command to start a game under an
// optional compatibility runner, primes a fresh Wine/Proton prefix,
// dispatches the configured injection method, and supervises the
// child process through exit.
//
// Grounded on crates/proc_marshal/src/launcher.rs.
package launch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"yago/internal/yagoerr"
)

// RunnerType is the compatibility layer (or lack of one) a game runs
// under.
type RunnerType int

const (
	RunnerNative RunnerType = iota
	RunnerWine
	RunnerProton
)

// Runner names the compatibility layer binary.
type Runner struct {
	Type RunnerType
	Path string // empty for Native
}

// InjectionMethod selects how the mod loader attaches to the game
// process (spec §4.13).
type InjectionMethod string

const (
	InjectionNone         InjectionMethod = "None"
	InjectionProxy        InjectionMethod = "Proxy"
	InjectionLoader       InjectionMethod = "Loader"
	InjectionRemoteThread InjectionMethod = "RemoteThread"
	InjectionManualMap    InjectionMethod = "ManualMap"
)

// Options fully parameterizes one launch (spec §4.13).
type Options struct {
	ExePath    string
	Args       []string
	CurrentDir string
	Runner     Runner
	PrefixPath string

	Gamescope       bool
	GamescopeWidth  int
	GamescopeHeight int
	Gamemode        bool
	MangoHud        bool
	FPSTarget       int // 0 disables the frame-rate cap

	Injection      InjectionMethod
	LoaderDir      string   // directory holding the external loader executable (Loader method)
	InjectedDLLs   []string // RemoteThread only
	IntegrityShield bool
	ShieldLibrary  string
}

// BuildCommand assembles the POSIX wrapper-chain argv and environment
// for options (spec §4.13 "Command assembly (POSIX)"): gamemoderun >
// gamescope > mangohud > runner > exe > user argv. It is pure: no
// process is spawned and no filesystem state is read.
func BuildCommand(o Options) (argv []string, env map[string]string) {
	env = make(map[string]string)

	outermost := outermostWrapper(o)
	argv = append(argv, outermost)

	if o.Gamemode && o.Gamescope {
		argv = append(argv, "gamescope")
	}
	if o.Gamescope {
		argv = append(argv, "-W", itoa(o.GamescopeWidth), "-H", itoa(o.GamescopeHeight), "-f", "--")
	}
	if o.MangoHud && (o.Gamemode || o.Gamescope) {
		argv = append(argv, "mangohud")
	}

	if o.FPSTarget > 0 {
		env["DXVK_FRAME_RATE"] = itoa(o.FPSTarget)
	}

	if o.Runner.Type != RunnerNative {
		if outermost != o.Runner.Path {
			argv = append(argv, o.Runner.Path)
		}
		env["WINEDEBUG"] = "-all"
		if o.Injection == InjectionProxy {
			env["WINEDLLOVERRIDES"] = "d3d11,dxgi=n,b"
		}
		if o.IntegrityShield && o.ShieldLibrary != "" {
			env["LD_PRELOAD"] = o.ShieldLibrary
		}

		switch o.Runner.Type {
		case RunnerWine:
			if o.PrefixPath != "" {
				env["WINEPREFIX"] = o.PrefixPath
			}
		case RunnerProton:
			if o.PrefixPath != "" {
				env["STEAM_COMPAT_DATA_PATH"] = o.PrefixPath
			}
			if parent := filepath.Dir(o.Runner.Path); parent != "." {
				env["STEAM_COMPAT_CLIENT_INSTALL_PATH"] = parent
			}
			argv = append(argv, "run")
		}
		argv = append(argv, o.ExePath)
	} else if outermost != o.ExePath {
		argv = append(argv, o.ExePath)
	}

	argv = append(argv, o.Args...)
	return argv, env
}

func outermostWrapper(o Options) string {
	switch {
	case o.Gamemode:
		return "gamemoderun"
	case o.Gamescope:
		return "gamescope"
	case o.MangoHud:
		return "mangohud"
	case o.Runner.Type == RunnerNative:
		return o.ExePath
	default:
		return o.Runner.Path
	}
}

func itoa(n int) string { return fmt.Sprintf("%d", n) }

// NeedsPrefixPriming reports whether options.PrefixPath's drive_c does
// not yet exist and the runner is present (spec §4.13 "Prefix priming").
func NeedsPrefixPriming(o Options) bool {
	if o.PrefixPath == "" || o.Runner.Type == RunnerNative {
		return false
	}
	driveC := filepath.Join(o.PrefixPath, "pfx", "drive_c")
	_, err := os.Stat(driveC)
	return os.IsNotExist(err)
}

// PrimePrefix runs the runner's wineboot -u equivalent and waits for it
// to finish, initializing a fresh Wine/Proton prefix.
func PrimePrefix(ctx context.Context, o Options) error {
	pfxDir := filepath.Join(o.PrefixPath, "pfx")
	if err := os.MkdirAll(pfxDir, 0o755); err != nil {
		return fmt.Errorf("create prefix directory: %w", err)
	}

	var cmd *exec.Cmd
	switch o.Runner.Type {
	case RunnerProton:
		cmd = exec.CommandContext(ctx, o.Runner.Path, "run", "wineboot", "-u")
		cmd.Env = append(os.Environ(), "STEAM_COMPAT_DATA_PATH="+o.PrefixPath)
		if parent := filepath.Dir(o.Runner.Path); parent != "." {
			cmd.Env = append(cmd.Env, "STEAM_COMPAT_CLIENT_INSTALL_PATH="+parent)
		}
	case RunnerWine:
		cmd = exec.CommandContext(ctx, o.Runner.Path, "wineboot", "-u")
		cmd.Env = append(os.Environ(), "WINEPREFIX="+o.PrefixPath)
	default:
		return nil
	}
	cmd.Env = append(cmd.Env, "WINEDEBUG=-all")
	return cmd.Run()
}

// Launch builds and starts the game process per BuildCommand, blocking
// the caller only long enough to spawn it (and, for Loader injection,
// until the external loader exits); the returned *exec.Cmd can be
// waited on by the caller's lifecycle monitor (spec §4.13 "Lifecycle").
func Launch(ctx context.Context, o Options) (*exec.Cmd, error) {
	switch o.Injection {
	case InjectionManualMap:
		return nil, yagoerr.New(yagoerr.Unsupported, "ManualMap injection is not implemented")
	case InjectionRemoteThread:
		return nil, yagoerr.New(yagoerr.Unsupported, "RemoteThread injection requires a Windows-only implementation not present on this platform")
	}

	argv, env := BuildCommand(o)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if o.CurrentDir != "" {
		cmd.Dir = o.CurrentDir
	}
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch: spawn %s: %w", argv[0], err)
	}

	if o.Injection == InjectionLoader && o.LoaderDir != "" {
		if err := runLoaderHandoff(ctx, o); err != nil {
			return cmd, fmt.Errorf("launch: loader handoff: %w", err)
		}
	}

	return cmd, nil
}

// runLoaderHandoff spawns the external loader executable through the
// same runner/prefix/env as the game and waits for it to exit (spec
// §4.13 "Loader: after spawn, launch the external loader executable").
func runLoaderHandoff(ctx context.Context, o Options) error {
	loaderExe := filepath.Join(o.LoaderDir, "3DMigoto Loader.exe")
	if _, err := os.Stat(loaderExe); err != nil {
		return fmt.Errorf("loader executable not found at %s", loaderExe)
	}

	_, env := BuildCommand(o)
	var cmd *exec.Cmd
	switch o.Runner.Type {
	case RunnerNative:
		cmd = exec.CommandContext(ctx, loaderExe)
	case RunnerProton:
		cmd = exec.CommandContext(ctx, o.Runner.Path, "run", loaderExe)
	default:
		cmd = exec.CommandContext(ctx, o.Runner.Path, loaderExe)
	}
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Dir = o.LoaderDir
	return cmd.Run()
}

// CleanupAfterExit removes artifacts the controller is responsible for
// once the game process exits (spec §4.13 "Lifecycle"): when injection
// was Loader, any ReShade.dll the controller placed in the game
// directory.
func CleanupAfterExit(o Options) error {
	if o.Injection != InjectionLoader || o.CurrentDir == "" {
		return nil
	}
	reshade := filepath.Join(o.CurrentDir, "ReShade.dll")
	if _, err := os.Stat(reshade); err == nil {
		return os.Remove(reshade)
	}
	return nil
}
