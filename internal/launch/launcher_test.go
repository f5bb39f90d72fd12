package launch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"yago/internal/yagoerr"
)

func TestBuildCommandNativeNoWrappers(t *testing.T) {
	argv, env := BuildCommand(Options{
		ExePath: "/games/foo/foo.exe",
		Args:    []string{"-windowed"},
		Runner:  Runner{Type: RunnerNative},
	})
	want := []string{"/games/foo/foo.exe", "-windowed"}
	if !equal(argv, want) {
		t.Fatalf("got argv %v, want %v", argv, want)
	}
	if len(env) != 0 {
		t.Fatalf("expected no env vars for native launch, got %v", env)
	}
}

func TestBuildCommandWineWrapsRunnerAroundExe(t *testing.T) {
	argv, env := BuildCommand(Options{
		ExePath:    "/games/foo/foo.exe",
		Runner:     Runner{Type: RunnerWine, Path: "/usr/bin/wine"},
		PrefixPath: "/prefixes/foo",
	})
	want := []string{"/usr/bin/wine", "/games/foo/foo.exe"}
	if !equal(argv, want) {
		t.Fatalf("got argv %v, want %v", argv, want)
	}
	if env["WINEPREFIX"] != "/prefixes/foo" {
		t.Errorf("expected WINEPREFIX set, got %v", env)
	}
	if env["WINEDEBUG"] != "-all" {
		t.Errorf("expected WINEDEBUG=-all, got %v", env)
	}
}

func TestBuildCommandProtonAddsRunSubcommandAndSteamEnv(t *testing.T) {
	argv, env := BuildCommand(Options{
		ExePath:    "/games/foo/foo.exe",
		Runner:     Runner{Type: RunnerProton, Path: "/steam/proton/proton"},
		PrefixPath: "/prefixes/foo",
	})
	want := []string{"/steam/proton/proton", "run", "/games/foo/foo.exe"}
	if !equal(argv, want) {
		t.Fatalf("got argv %v, want %v", argv, want)
	}
	if env["STEAM_COMPAT_DATA_PATH"] != "/prefixes/foo" {
		t.Errorf("expected STEAM_COMPAT_DATA_PATH set, got %v", env)
	}
	if env["STEAM_COMPAT_CLIENT_INSTALL_PATH"] != "/steam/proton" {
		t.Errorf("expected STEAM_COMPAT_CLIENT_INSTALL_PATH set, got %v", env)
	}
}

func TestBuildCommandFullWrapperOrder(t *testing.T) {
	argv, _ := BuildCommand(Options{
		ExePath:         "/games/foo/foo.exe",
		Runner:          Runner{Type: RunnerWine, Path: "/usr/bin/wine"},
		Gamemode:        true,
		Gamescope:       true,
		GamescopeWidth:  1920,
		GamescopeHeight: 1080,
		MangoHud:        true,
	})
	want := []string{
		"gamemoderun", "gamescope",
		"-W", "1920", "-H", "1080", "-f", "--",
		"mangohud",
		"/usr/bin/wine", "/games/foo/foo.exe",
	}
	if !equal(argv, want) {
		t.Fatalf("got argv %v, want %v", argv, want)
	}
}

func TestBuildCommandProxySetsWineDLLOverrides(t *testing.T) {
	_, env := BuildCommand(Options{
		ExePath:   "/games/foo/foo.exe",
		Runner:    Runner{Type: RunnerWine, Path: "/usr/bin/wine"},
		Injection: InjectionProxy,
	})
	if env["WINEDLLOVERRIDES"] != "d3d11,dxgi=n,b" {
		t.Errorf("expected WINEDLLOVERRIDES for Proxy injection, got %v", env)
	}
}

func TestBuildCommandIntegrityShieldSetsLDPreload(t *testing.T) {
	_, env := BuildCommand(Options{
		ExePath:         "/games/foo/foo.exe",
		Runner:          Runner{Type: RunnerWine, Path: "/usr/bin/wine"},
		IntegrityShield: true,
		ShieldLibrary:   "/opt/yago/shield.so",
	})
	if env["LD_PRELOAD"] != "/opt/yago/shield.so" {
		t.Errorf("expected LD_PRELOAD set, got %v", env)
	}
}

func TestBuildCommandFPSTargetSetsDXVKFrameRate(t *testing.T) {
	_, env := BuildCommand(Options{
		ExePath:   "/games/foo/foo.exe",
		Runner:    Runner{Type: RunnerNative},
		FPSTarget: 60,
	})
	if env["DXVK_FRAME_RATE"] != "60" {
		t.Errorf("expected DXVK_FRAME_RATE=60, got %v", env)
	}
}

func TestBuildCommandNoFPSTargetOmitsDXVKFrameRate(t *testing.T) {
	_, env := BuildCommand(Options{
		ExePath: "/games/foo/foo.exe",
		Runner:  Runner{Type: RunnerNative},
	})
	if _, ok := env["DXVK_FRAME_RATE"]; ok {
		t.Errorf("expected no DXVK_FRAME_RATE when FPSTarget is unset, got %v", env)
	}
}

func TestLaunchRejectsManualMapAsUnsupported(t *testing.T) {
	_, err := Launch(context.Background(), Options{
		ExePath:   "/games/foo/foo.exe",
		Runner:    Runner{Type: RunnerNative},
		Injection: InjectionManualMap,
	})
	if code, ok := yagoerr.CodeOf(err); !ok || code != yagoerr.Unsupported {
		t.Fatalf("expected Unsupported yagoerr for ManualMap, got %v", err)
	}
}

func TestLaunchRejectsRemoteThreadAsUnsupported(t *testing.T) {
	_, err := Launch(context.Background(), Options{
		ExePath:   "/games/foo/foo.exe",
		Runner:    Runner{Type: RunnerNative},
		Injection: InjectionRemoteThread,
	})
	if code, ok := yagoerr.CodeOf(err); !ok || code != yagoerr.Unsupported {
		t.Fatalf("expected Unsupported yagoerr for RemoteThread, got %v", err)
	}
}

func TestNeedsPrefixPriming(t *testing.T) {
	dir := t.TempDir()
	o := Options{Runner: Runner{Type: RunnerWine, Path: "/usr/bin/wine"}, PrefixPath: dir}
	if !NeedsPrefixPriming(o) {
		t.Fatal("expected priming needed for empty prefix")
	}

	if err := os.MkdirAll(filepath.Join(dir, "pfx", "drive_c"), 0o755); err != nil {
		t.Fatal(err)
	}
	if NeedsPrefixPriming(o) {
		t.Fatal("expected priming not needed once drive_c exists")
	}
}

func TestNeedsPrefixPrimingFalseForNative(t *testing.T) {
	o := Options{Runner: Runner{Type: RunnerNative}, PrefixPath: t.TempDir()}
	if NeedsPrefixPriming(o) {
		t.Fatal("expected no priming for native runner")
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
