package video

import (
	"strings"
	"testing"
)

func TestExtractSampleArgsInterval(t *testing.T) {
	args := extractSampleArgs("/v/in.mp4", "/tmp/f", MethodInterval, 2, 30)
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "fps=2,scale=-1:480") {
		t.Fatalf("interval filter missing: %s", joined)
	}
	if !strings.Contains(joined, "-frames:v 30") {
		t.Fatalf("frame cap missing: %s", joined)
	}
	if !strings.Contains(joined, "frame_%04d.png") {
		t.Fatalf("output pattern missing: %s", joined)
	}
}

func TestExtractSampleArgsKeyframes(t *testing.T) {
	args := extractSampleArgs("/v/in.mp4", "/tmp/f", MethodKeyframes, 1, 10)
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, `select=eq(pict_type\,I),scale=-1:480`) {
		t.Fatalf("keyframe filter missing: %s", joined)
	}
	if !strings.Contains(joined, "-vsync vfr") {
		t.Fatalf("vfr flag missing for keyframe selection: %s", joined)
	}
}

func TestExtractAllArgs(t *testing.T) {
	args := extractAllArgs("/v/in.mp4", "/tmp/f")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-qscale:v 2") {
		t.Fatalf("quality flag missing: %s", joined)
	}
	if !strings.Contains(joined, "frame_%06d.png") {
		t.Fatalf("output pattern missing: %s", joined)
	}
}

func TestEncodeArgsH264(t *testing.T) {
	args := encodeArgs(EncodeJob{
		FPS:          29.97,
		FramePattern: "/w/sbs/frame_%06d.png",
		Source:       "/v/in.mp4",
		Codec:        CodecH264,
		OutPath:      "/w/out.mp4",
	})
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-c:v libx264",
		"-map 0:v -map 1:a?",
		"-c:a copy",
		"-pix_fmt yuv420p",
		"-framerate 29.97",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in: %s", want, joined)
		}
	}
	if strings.Contains(joined, "hvc1") {
		t.Fatalf("h264 must not carry the hevc tag: %s", joined)
	}
}

func TestEncodeArgsHEVCTag(t *testing.T) {
	args := encodeArgs(EncodeJob{FPS: 24, FramePattern: "f_%06d.png", Source: "in.mp4", Codec: CodecHEVC, OutPath: "out.mp4"})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-c:v libx265") || !strings.Contains(joined, "-tag:v hvc1") {
		t.Fatalf("hevc flags missing: %s", joined)
	}
}

func TestParseFrameRate(t *testing.T) {
	fps, err := parseFrameRate([]byte(`{"streams":[{"r_frame_rate":"30000/1001"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fps < 29.9 || fps > 30.0 {
		t.Fatalf("unexpected fps: %v", fps)
	}
}

func TestParseFrameRateErrors(t *testing.T) {
	cases := []string{
		`not json`,
		`{"streams":[]}`,
		`{"streams":[{"r_frame_rate":"30"}]}`,
		`{"streams":[{"r_frame_rate":"30/0"}]}`,
		`{"streams":[{"r_frame_rate":"a/b"}]}`,
	}
	for _, c := range cases {
		if _, err := parseFrameRate([]byte(c)); err == nil {
			t.Fatalf("expected error for %q", c)
		}
	}
}

func TestParseCodec(t *testing.T) {
	if c, err := ParseCodec(""); err != nil || c != CodecH264 {
		t.Fatalf("default codec: %v %v", c, err)
	}
	if c, err := ParseCodec("hevc"); err != nil || c != CodecHEVC {
		t.Fatalf("hevc: %v %v", c, err)
	}
	if _, err := ParseCodec("vp9"); err == nil {
		t.Fatalf("vp9 must be rejected")
	}
}
