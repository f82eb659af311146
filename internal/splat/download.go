package splat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"depthd/internal/xproc"
)

// CheckpointPath returns the deterministic local path of the checkpoint file.
func (m *Manager) CheckpointPath() string {
	return filepath.Join(m.checkpointDir, CheckpointFilename)
}

// Downloaded reports whether the checkpoint file exists locally.
func (m *Manager) Downloaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.downloaded()
}

func (m *Manager) downloaded() bool {
	fi, err := os.Stat(m.CheckpointPath())
	return err == nil && !fi.IsDir()
}

// EnsureDownloaded fetches the checkpoint from the fixed remote location when
// it is not already cached. A failed or partial download is deleted before
// the error propagates.
func (m *Manager) EnsureDownloaded(ctx context.Context) error {
	if !m.mu.TryLock() {
		return busyError{op: "download"}
	}
	defer m.mu.Unlock()
	return m.ensureDownloadedLocked(ctx)
}

func (m *Manager) ensureDownloadedLocked(ctx context.Context) error {
	if m.downloaded() {
		return nil
	}
	if err := os.MkdirAll(m.checkpointDir, 0o755); err != nil {
		return downloadError{err: err}
	}
	dst := m.CheckpointPath()
	cmd, err := m.downloadCmd(dst)
	if err != nil {
		return downloadError{err: err}
	}
	m.log.Info().Str("url", CheckpointURL).Str("dst", dst).Msg("downloading splat checkpoint")
	if _, err := m.run(ctx, cmd); err != nil {
		// A partial file would shadow future downloads; remove it before
		// surfacing the failure.
		if rmErr := os.Remove(dst); rmErr != nil && !os.IsNotExist(rmErr) {
			m.log.Warn().Err(rmErr).Msg("failed to remove partial checkpoint")
		}
		return downloadError{err: err}
	}
	return nil
}

// downloadCmd builds the external downloader invocation, preferring wget and
// falling back to curl.
func (m *Manager) downloadCmd(dst string) (xproc.Cmd, error) {
	switch {
	case m.lookPath("wget"):
		return xproc.Cmd{
			Name:    "wget",
			Args:    []string{"-q", "-O", dst, CheckpointURL},
			Timeout: defaultDownloadTimeout,
		}, nil
	case m.lookPath("curl"):
		return xproc.Cmd{
			Name:    "curl",
			Args:    []string{"-L", "-o", dst, CheckpointURL},
			Timeout: defaultDownloadTimeout,
		}, nil
	}
	return xproc.Cmd{}, errors.New("neither wget nor curl available for download")
}

// DeleteCheckpoint removes the cached checkpoint file. It reports whether a
// file was present.
func (m *Manager) DeleteCheckpoint() (bool, error) {
	if !m.mu.TryLock() {
		return false, busyError{op: "delete"}
	}
	defer m.mu.Unlock()
	p := m.CheckpointPath()
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := os.Remove(p); err != nil {
		return false, fmt.Errorf("remove checkpoint: %w", err)
	}
	return true, nil
}
