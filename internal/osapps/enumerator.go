package osapps

import (
	"context"
	_ "embed"
	"os/exec"
	"runtime"
	"time"

	"github.com/pkg/errors"
)

//go:embed apps.ps1
var enumerateScript string

// Enumerator lists installed applications as a JSON array of
// {id, title, execPath, logoPath, installDate} objects.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]byte, error)
}

// PowerShellEnumerator reads the Windows uninstall registry keys. On other
// systems it reports nothing.
type PowerShellEnumerator struct {
	Binary  string
	Timeout time.Duration
}

func NewPowerShellEnumerator() *PowerShellEnumerator {
	return &PowerShellEnumerator{
		Binary:  "powershell.exe",
		Timeout: 60 * time.Second,
	}
}

func (e *PowerShellEnumerator) Enumerate(ctx context.Context) ([]byte, error) {
	if runtime.GOOS != "windows" {
		return nil, nil
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.Binary, //nolint:gosec
		"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass",
		"-Command", enumerateScript,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrap(err, "run registry enumeration")
	}
	return out, nil
}
