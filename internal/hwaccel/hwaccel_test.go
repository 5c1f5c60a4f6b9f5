package hwaccel

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/signcast/signcast/internal/encode"
)

func proberWith(results map[string]error) *Prober {
	p := NewProber("/usr/bin/ffmpeg")
	p.run = func(_ context.Context, _ string, args []string) error {
		// encoder name follows -c:v
		for i, arg := range args {
			if arg == "-c:v" && i+1 < len(args) {
				if err, ok := results[args[i+1]]; ok {
					return err
				}
				return errors.New("unknown encoder")
			}
		}
		return errors.New("no encoder in args")
	}
	return p
}

func TestProbePicksFirstWorkingCandidate(t *testing.T) {
	p := proberWith(map[string]error{
		"h264_nvenc": errors.New("no nvidia device"),
		"h264_qsv":   nil,
		"h264_amf":   nil,
	})

	result := p.Probe(context.Background(), encode.CodecH264)
	if !result.Supported {
		t.Fatalf("Probe() unsupported: %s", result.Message)
	}
	if result.Encoder != "h264_qsv" {
		t.Errorf("Encoder = %q, want h264_qsv (first working in preference order)", result.Encoder)
	}
}

func TestProbeAllCandidatesFail(t *testing.T) {
	p := proberWith(map[string]error{})

	result := p.Probe(context.Background(), encode.CodecH264)
	if result.Supported {
		t.Fatal("Probe() reported support with no working candidates")
	}
	if result.Message == "" {
		t.Error("unsupported probe must carry an advisory message")
	}
}

func TestReconcileDisablesWithoutOverride(t *testing.T) {
	cfg := encode.Config{Codec: encode.CodecH264, Encoder: "libx264"}
	unsupported := Result{Supported: false, Message: "no working hardware encoder"}

	got, msg := Reconcile(cfg, true, false, unsupported)
	if got.Encoder != "libx264" {
		t.Errorf("Encoder = %q, want software fallback libx264", got.Encoder)
	}
	if msg == "" {
		t.Error("advisory message dropped")
	}
}

func TestReconcileOverrideKeepsHardware(t *testing.T) {
	cfg := encode.Config{Codec: encode.CodecH264, Encoder: "libx264"}
	unsupported := Result{Supported: false, Message: "no working hardware encoder"}

	got, msg := Reconcile(cfg, true, true, unsupported)
	if got.Encoder != "h264_nvenc" {
		t.Errorf("Encoder = %q, want forced h264_nvenc", got.Encoder)
	}
	if !strings.Contains(msg, "override") {
		t.Errorf("message %q should note the override", msg)
	}
}

func TestReconcileSupportedUsesProbedEncoder(t *testing.T) {
	cfg := encode.Config{Codec: encode.CodecHEVC, Encoder: "libx265"}
	supported := Result{Supported: true, Encoder: "hevc_vaapi", Message: "ok"}

	got, _ := Reconcile(cfg, true, false, supported)
	if got.Encoder != "hevc_vaapi" {
		t.Errorf("Encoder = %q, want hevc_vaapi", got.Encoder)
	}
}

func TestReconcileAccelerationNotRequested(t *testing.T) {
	cfg := encode.Config{Codec: encode.CodecH264, Encoder: "libx264"}
	supported := Result{Supported: true, Encoder: "h264_nvenc"}

	got, msg := Reconcile(cfg, false, false, supported)
	if got.Encoder != "libx264" || msg != "" {
		t.Errorf("Reconcile without request changed config: %q / %q", got.Encoder, msg)
	}
}
