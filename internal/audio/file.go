package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"
)

// DefaultTick is how often FileSource feeds the recorder.
const DefaultTick = 100 * time.Millisecond

// FileSource plays a PCM WAV file into a MemoryRecorder as if it were the
// microphone. PCM is written at the file's byte rate and loops at the end,
// so byte offsets in the recording follow elapsed session time.
type FileSource struct {
	rec    *MemoryRecorder
	format Format
	pcm    []byte
	now    func() time.Time
	tick   time.Duration

	mu      sync.Mutex
	started time.Time
	sent    int
	cancel  context.CancelFunc
	done    chan struct{}
}

// OpenFileSource reads a WAV file from disk.
func OpenFileSource(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	src, err := NewFileSource(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// NewFileSource plays wav against now, or the wall clock when now is nil.
func NewFileSource(wav []byte, now func() time.Time) (*FileSource, error) {
	f, pcm, err := ParseWAV(wav)
	if err != nil {
		return nil, err
	}
	pcm = pcm[:len(pcm)/f.BlockAlign()*f.BlockAlign()]
	if len(pcm) == 0 {
		return nil, fmt.Errorf("audio: wav has no samples")
	}
	if now == nil {
		now = time.Now
	}
	rec := NewMemoryRecorder("audio/wav")
	rec.now = now
	return &FileSource{rec: rec, format: f, pcm: pcm, now: now, tick: DefaultTick}, nil
}

// Format returns the PCM format of the source file.
func (s *FileSource) Format() Format { return s.format }

// Start claims the microphone and begins feeding PCM.
func (s *FileSource) Start(ctx context.Context) error {
	if err := s.rec.Start(ctx); err != nil {
		return err
	}
	// The data size is unknown until Stop patches it.
	header := make([]byte, 44)
	putHeader(header, s.format, 0)
	s.rec.Write(header)

	pctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.started = s.now()
	s.sent = 0
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go s.pump(pctx, done)
	return nil
}

func (s *FileSource) pump(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(s.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.feed()
		}
	}
}

// feed writes the PCM due since Start.
func (s *FileSource) feed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	align := s.format.BlockAlign()
	elapsed := s.now().Sub(s.started)
	due := int(elapsed.Seconds()*float64(s.format.ByteRate())) / align * align
	for s.sent < due {
		off := s.sent % len(s.pcm)
		n := min(len(s.pcm)-off, due-s.sent)
		s.rec.Write(s.pcm[off : off+n])
		s.sent += n
	}
}

// Stop tops the recording up to the current time and returns it as a WAV
// clip with a correct header.
func (s *FileSource) Stop() (Clip, error) {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return Clip{}, ErrNotRecording
	}
	cancel()
	<-done
	s.feed()

	clip, err := s.rec.Stop()
	if err != nil {
		return Clip{}, err
	}
	if len(clip.Data) >= 44 {
		size := len(clip.Data) - 44
		binary.LittleEndian.PutUint32(clip.Data[4:8], uint32(36+size))
		binary.LittleEndian.PutUint32(clip.Data[40:44], uint32(size))
	}
	return clip, nil
}
