package splat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"depthd/internal/device"
	"depthd/internal/xproc"
)

// Predict generates a Gaussian splat from an input image, writing a single
// .ply artifact into outputDir and returning its path. The model is lazily
// loaded when not resident. An inference failure triggers emergency memory
// reclamation before the error surfaces.
func (m *Manager) Predict(ctx context.Context, imagePath, outputDir string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.res == nil {
		if err := m.loadLocked(ctx, device.PrefAuto); err != nil {
			return "", inferenceError{err: err}
		}
	}
	m.res.lastUsed = m.now()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", inferenceError{err: err}
	}

	args := []string{"predict", "-i", imagePath, "-o", outputDir}
	if m.downloaded() {
		args = append(args, "-c", m.CheckpointPath())
	}
	m.log.Info().Str("image", imagePath).Str("out", outputDir).Msg("running splat inference")
	if _, err := m.run(ctx, xproc.Cmd{Name: m.bin, Args: args, Timeout: m.inferTimeout}); err != nil {
		m.unloadLocked()
		debug.FreeOSMemory()
		return "", inferenceError{err: err}
	}
	m.res.lastUsed = m.now()

	ply, err := findArtifact(outputDir)
	if err != nil {
		return "", inferenceError{err: err}
	}
	return ply, nil
}

// findArtifact locates the produced .ply file in outputDir.
func findArtifact(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.ply"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no ply artifact produced in %s", dir)
	}
	return matches[0], nil
}
