package manager

import (
	"depthd/pkg/types"
)

// Status reports the manager's current state. Downloaded variants are derived
// by probing the local cache; the resident variant is always reported
// downloaded regardless of the probe, since it is provably present in memory.
func (m *Manager) Status() types.StatusResponse {
	m.mu.Lock()
	defer m.mu.Unlock()

	resp := types.StatusResponse{
		DefaultModel:     m.cat.DefaultKey(),
		AvailableModels:  m.cat.Keys(),
		DownloadedModels: m.cache.DownloadedKeys(m.cat),
	}
	if m.res == nil {
		return resp
	}
	resp.Loaded = true
	resp.CurrentModel = m.res.variant.Key
	resp.Device = string(m.res.dev)
	resp.LoadedAtUnix = m.res.loadedAt.Unix()
	resp.LastUsedUnix = m.res.lastUsed.Unix()
	if !contains(resp.DownloadedModels, m.res.variant.Key) {
		resp.DownloadedModels = append(resp.DownloadedModels, m.res.variant.Key)
	}
	return resp
}

// Models lists every catalog variant with its loaded/downloaded flags, in
// catalog order.
func (m *Manager) Models() []types.ModelInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := ""
	if m.res != nil {
		current = m.res.variant.Key
	}
	out := make([]types.ModelInfo, 0, len(m.cat.All()))
	for _, v := range m.cat.All() {
		out = append(out, types.ModelInfo{
			Key:          v.Key,
			Name:         v.Name,
			Type:         "depth",
			ExternalID:   v.ExternalID,
			Params:       v.Params,
			Memory:       v.Memory,
			Description:  v.Description,
			IsLoaded:     v.Key == current,
			IsDownloaded: v.Key == current || m.cache.Downloaded(v),
		})
	}
	return out
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
