package httpapi

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"depthd/internal/stereo"
	"depthd/internal/video"
)

// formFile pulls the named upload out of a multipart request. The body is
// capped at maxUploadBytes before parsing.
func formFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	f, hdr, err := r.FormFile(field)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "no '"+field+"' file provided")
		return nil, nil, false
	}
	if hdr.Filename == "" {
		f.Close()
		writeJSONError(w, http.StatusBadRequest, "empty filename")
		return nil, nil, false
	}
	return f, hdr, true
}

// spoolUpload writes an upload to a temp file so subprocess tools can read it.
// The caller removes the returned path.
func spoolUpload(f multipart.File, suffix string) (string, error) {
	tmp, err := os.CreateTemp("", "depthd-upload-*"+suffix)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, f); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func baseName(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

func handleDepth(depth DepthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, hdr, ok := formFile(w, r, "image")
		if !ok {
			return
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "unreadable image: "+err.Error())
			return
		}

		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		dm, err := depth.Predict(ctx, img, r.URL.Query().Get("model"))
		if err != nil {
			writeError(w, err)
			return
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, dm.ToGray()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "encode depth map: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="depth_`+baseName(hdr.Filename)+`.png"`)
		w.Header().Set("X-Model-Used", depth.CurrentVariant())
		w.Write(buf.Bytes())
	}
}

func handleSplat(sp SplatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, hdr, ok := formFile(w, r, "image")
		if !ok {
			return
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "unreadable image: "+err.Error())
			return
		}

		workDir, err := os.MkdirTemp("", "depthd-splat-")
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer os.RemoveAll(workDir)

		// The splat CLI wants an RGB JPEG on disk.
		inputPath := filepath.Join(workDir, "input.jpg")
		if err := imaging.Save(img, inputPath, imaging.JPEGQuality(95)); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "save input image: "+err.Error())
			return
		}

		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		plyPath, err := sp.Predict(ctx, inputPath, filepath.Join(workDir, "output"))
		if err != nil {
			writeError(w, err)
			return
		}
		ply, err := os.ReadFile(plyPath)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "read artifact: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="splat_`+baseName(hdr.Filename)+`.ply"`)
		w.Header().Set("X-Model-Used", splatKey)
		w.Header().Set("X-File-Size", strconv.Itoa(len(ply)))
		w.Write(ply)
	}
}

func handleSplatStatus(sp SplatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := sp.Status()
		writeJSON(w, http.StatusOK, map[string]any{
			"model_key":       splatKey,
			"model_name":      "SHARP",
			"is_loaded":       st.Loaded,
			"is_downloaded":   st.Downloaded,
			"checkpoint_path": sp.CheckpointPath(),
		})
	}
}

func handleSplatDownload(sp SplatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sp.Downloaded() {
			writeJSON(w, http.StatusOK, map[string]string{
				"status":  "already_downloaded",
				"message": "splat checkpoint is already downloaded",
			})
			return
		}
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := sp.EnsureDownloaded(ctx); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "success",
			"message": "splat checkpoint downloaded",
		})
	}
}

func handleVideoDepth(vs VideoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, hdr, ok := formFile(w, r, "video")
		if !ok {
			return
		}
		defer f.Close()

		videoPath, err := spoolUpload(f, ".mp4")
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer os.Remove(videoPath)

		q := r.URL.Query()
		opts := video.ArchiveOptions{
			Method:    video.ParseMethod(q.Get("method")),
			FPS:       atoiDefault(q.Get("fps"), 0),
			MaxFrames: atoiDefault(q.Get("max_frames"), 0),
			Model:     q.Get("model"),
		}

		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		archive, err := vs.DepthArchive(ctx, videoPath, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="depth_frames_`+baseName(hdr.Filename)+`.zip"`)
		w.Write(archive)
	}
}

func handleVideoSBS(vs VideoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, hdr, ok := formFile(w, r, "video")
		if !ok {
			return
		}
		defer f.Close()

		videoPath, err := spoolUpload(f, ".mp4")
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer os.Remove(videoPath)

		q := r.URL.Query()
		format, err := stereo.ParseFormat(q.Get("format"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		codec, err := video.ParseCodec(q.Get("codec"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts := video.StereoOptions{
			Divergence: atofDefault(q.Get("divergence"), 0),
			Format:     format,
			Codec:      codec,
			BatchSize:  atoiDefault(q.Get("batch_size"), 0),
			Model:      q.Get("model"),
		}

		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		res, err := vs.StereoVideo(ctx, videoPath, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		defer os.Remove(res.Path)

		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Disposition", `attachment; filename="sbs_`+baseName(hdr.Filename)+`.mp4"`)
		w.Header().Set("X-Frames-Processed", strconv.Itoa(res.Frames))
		w.Header().Set("X-Frames-Skipped", strconv.Itoa(res.Skipped))
		http.ServeFile(w, r, res.Path)
	}
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func atofDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}
