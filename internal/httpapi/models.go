package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"depthd/internal/device"
	"depthd/pkg/types"
)

// splatKey is the catalog key the splat model is exposed under. The depth
// catalog does not contain it; model routes special-case it.
const splatKey = "sharp"

func splatModelInfo(s SplatService) types.ModelInfo {
	st := s.Status()
	return types.ModelInfo{
		Key:          splatKey,
		Name:         "SHARP",
		Type:         "splat",
		ExternalID:   "apple/ml-sharp",
		Params:       "~2GB",
		Memory:       "~4GB RAM",
		Description:  "Apple ml-sharp: photorealistic 3D Gaussian splats from a single image.",
		IsLoaded:     st.Loaded,
		IsDownloaded: st.Downloaded,
	}
}

func handleListModels(depth DepthService, sp SplatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := depth.Status()
		resp := types.ModelsResponse{
			Models:        append(depth.Models(), splatModelInfo(sp)),
			DefaultModel:  st.DefaultModel,
			CurrentModel:  st.CurrentModel,
			CurrentDevice: st.Device,
		}
		if resp.CurrentModel == "" {
			if ss := sp.Status(); ss.Loaded {
				resp.CurrentModel = splatKey
				resp.CurrentDevice = ss.Device
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// decodeDevice reads the optional {"device": "..."} body. An empty or absent
// body means auto.
func decodeDevice(r *http.Request) device.Preference {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	var req types.LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return device.PrefAuto
	}
	return device.ParsePreference(req.Device)
}

func handleLoadModel(depth DepthService, sp SplatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		pref := decodeDevice(r)
		if key == splatKey {
			if err := sp.Load(r.Context(), pref); err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, types.OKResponse{
				Success:      true,
				Message:      "model 'sharp' loaded",
				CurrentModel: splatKey,
			})
			return
		}
		if err := depth.Load(r.Context(), key, pref); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.OKResponse{
			Success:      true,
			Message:      "model '" + key + "' loaded",
			CurrentModel: depth.CurrentVariant(),
		})
	}
}

func handleDownloadModel(depth DepthService, sp SplatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if key == splatKey {
			if err := sp.EnsureDownloaded(r.Context()); err != nil {
				writeError(w, err)
				return
			}
		} else if err := depth.Download(r.Context(), key); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.OKResponse{
			Success: true,
			Message: "model '" + key + "' downloaded",
		})
	}
}

func handleUnloadModel(depth DepthService, sp SplatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if key == splatKey {
			if err := sp.Unload(); err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, types.OKResponse{Success: true, Message: "model 'sharp' unloaded"})
			return
		}
		if depth.CurrentVariant() != key {
			writeJSON(w, http.StatusOK, types.OKResponse{
				Success: true,
				Message: "model '" + key + "' is not currently loaded",
			})
			return
		}
		if err := depth.Unload(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.OKResponse{Success: true, Message: "model '" + key + "' unloaded"})
	}
}

func handleDeleteModel(depth DepthService, sp SplatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		var (
			removed bool
			err     error
		)
		if key == splatKey {
			removed, err = sp.DeleteCheckpoint()
		} else {
			removed, err = depth.Delete(key)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		if !removed {
			writeJSONError(w, http.StatusNotFound, "model '"+key+"' is not downloaded")
			return
		}
		writeJSON(w, http.StatusOK, types.OKResponse{Success: true, Message: "model '" + key + "' deleted"})
	}
}
