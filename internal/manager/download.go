package manager

import "context"

// Download fetches a variant's weights into the local cache without loading
// them. Unknown keys fail fast with no mutation.
func (m *Manager) Download(ctx context.Context, key string) error {
	v, ok := m.cat.Get(key)
	if !ok {
		return ErrVariantNotFound(key)
	}
	if err := m.factory.Download(ctx, v); err != nil {
		return downloadError{key: key, err: err}
	}
	m.log.Info().Str("model", key).Msg("model downloaded")
	return nil
}

// Delete removes a variant's cached weights from disk. It reports whether
// anything was removed. The resident instance, if it is this variant, stays
// loaded; only the on-disk artifact is affected.
func (m *Manager) Delete(key string) (bool, error) {
	v, ok := m.cat.Get(key)
	if !ok {
		return false, ErrVariantNotFound(key)
	}
	removed, err := m.cache.Delete(v)
	if err != nil {
		return false, err
	}
	if removed {
		m.log.Info().Str("model", key).Msg("cached weights deleted")
	}
	return removed, nil
}
