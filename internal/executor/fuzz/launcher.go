package fuzz

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/namnv2496/gameforge/internal/artifact"
)

// launcherSource imports the generated program and starts its Game past the
// menus. The program path is relative to the working directory, which is the
// fuzz work dir on the host and /workdir inside a container.
const launcherSource = `# Auto-start launcher for fuzz runs.
import importlib.util
import os
import sys

_GAME_PATH = os.path.join(os.getcwd(), *%s.split("/"))
sys.path.insert(0, os.path.dirname(_GAME_PATH))
_spec = importlib.util.spec_from_file_location(%s, _GAME_PATH)
_module = importlib.util.module_from_spec(_spec)
_spec.loader.exec_module(_module)

if __name__ == "__main__":
    game = _module.Game()
    game.game_active = True
    if hasattr(game, "paused"):
        game.paused = False
    if hasattr(game, "show_menu"):
        game.show_menu = False
    game.run()
`

// RenderLauncher returns the launcher text for programPath. The program must
// live under workDir, since fuzz runs only see that directory.
func RenderLauncher(programPath, workDir string) (string, error) {
	program, err := filepath.Abs(programPath)
	if err != nil {
		return "", fmt.Errorf("resolve program path: %w", err)
	}
	dir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolve fuzz work dir: %w", err)
	}
	rel, err := filepath.Rel(dir, program)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("program %s is outside the fuzz work dir %s", program, dir)
	}
	name := strings.TrimSuffix(filepath.Base(program), filepath.Ext(program))
	return fmt.Sprintf(launcherSource, strconv.QuoteToASCII(filepath.ToSlash(rel)), strconv.QuoteToASCII(name)), nil
}

// WriteLauncher writes the launcher for programPath to path.
func WriteLauncher(path, programPath, workDir string) error {
	text, err := RenderLauncher(programPath, workDir)
	if err != nil {
		return err
	}
	if err := artifact.WriteFile(path, text); err != nil {
		return fmt.Errorf("write launcher %s: %w", path, err)
	}
	return nil
}
