// Package audio records the session audio track that disputes later cut
// clips from.
package audio

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrBusy means another recorder already holds the microphone.
var ErrBusy = errors.New("audio: microphone already in use")

// ErrNotRecording is returned by Stop when Start was never called.
var ErrNotRecording = errors.New("audio: not recording")

// Clip is a finished recording.
type Clip struct {
	Data     []byte
	MIME     string
	Duration time.Duration
}

// Recorder captures audio for the length of one session.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() (Clip, error)
}

// microphone is held by at most one recorder in the process.
var microphone atomic.Bool

// MemoryRecorder buffers whatever is written to it while recording. A
// capture source such as FileSource writes into it.
type MemoryRecorder struct {
	mime string
	now  func() time.Time

	mu        sync.Mutex
	buf       bytes.Buffer
	recording bool
	started   time.Time
}

// NewMemoryRecorder creates a recorder producing clips of the given MIME type.
func NewMemoryRecorder(mime string) *MemoryRecorder {
	if mime == "" {
		mime = "audio/webm"
	}
	return &MemoryRecorder{mime: mime, now: time.Now}
}

// Start claims the microphone. It fails with ErrBusy while any recorder in
// the process is recording.
func (r *MemoryRecorder) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !microphone.CompareAndSwap(false, true) {
		return ErrBusy
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Reset()
	r.recording = true
	r.started = r.now()
	return nil
}

// Write appends audio bytes. Writes outside a recording are dropped.
func (r *MemoryRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return len(p), nil
	}
	return r.buf.Write(p)
}

// Recording reports whether Start has been called without a matching Stop.
func (r *MemoryRecorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Stop releases the microphone and returns the buffered clip.
func (r *MemoryRecorder) Stop() (Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return Clip{}, ErrNotRecording
	}
	r.recording = false
	microphone.Store(false)

	data := make([]byte, r.buf.Len())
	copy(data, r.buf.Bytes())
	r.buf.Reset()
	return Clip{Data: data, MIME: r.mime, Duration: r.now().Sub(r.started)}, nil
}
