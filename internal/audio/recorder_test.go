package audio

import (
	"context"
	"errors"
	"testing"
)

func TestRecorderExclusive(t *testing.T) {
	a := NewMemoryRecorder("")
	b := NewMemoryRecorder("audio/ogg")
	ctx := context.Background()

	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := b.Start(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("second Start err = %v, want ErrBusy", err)
	}
	if _, err := a.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := b.Start(ctx); err != nil {
		t.Errorf("Start after release: %v", err)
	}
	if _, err := b.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestRecorderBuffersWhileRecording(t *testing.T) {
	r := NewMemoryRecorder("")
	r.Write([]byte("dropped"))

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.Write([]byte("ab"))
	r.Write([]byte("cd"))
	clip, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if string(clip.Data) != "abcd" {
		t.Errorf("Data = %q, want %q", clip.Data, "abcd")
	}
	if clip.MIME != "audio/webm" {
		t.Errorf("MIME = %q, want audio/webm", clip.MIME)
	}
	if r.Recording() {
		t.Error("Recording() = true after Stop")
	}
}

func TestStopWithoutStart(t *testing.T) {
	r := NewMemoryRecorder("")
	if _, err := r.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("err = %v, want ErrNotRecording", err)
	}
}

func TestStartCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewMemoryRecorder("")
	if err := r.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if r.Recording() {
		t.Error("Recording() = true after canceled Start")
	}
}
