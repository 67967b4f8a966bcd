package dispute

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/laesemaskine/internal/audio"
	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/blob"
	"github.com/abhisek/laesemaskine/internal/store"
)

type fakeCreator struct {
	calls   atomic.Int32
	release chan struct{}
	err     error

	mu   sync.Mutex
	reqs []backend.DisputeRequest
}

func (c *fakeCreator) CreateDispute(_ context.Context, req backend.DisputeRequest) (*store.Dispute, error) {
	n := c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	if c.err != nil {
		return nil, c.err
	}
	c.mu.Lock()
	c.reqs = append(c.reqs, req)
	c.mu.Unlock()
	return &store.Dispute{ID: int64(n), SessionWordID: req.SessionWordID, HasAudio: len(req.Audio) > 0}, nil
}

func pcmWAV(t *testing.T, sampleRate int, seconds float64) []byte {
	t.Helper()
	frames := int(float64(sampleRate) * seconds)
	pcm := make([]byte, frames*2)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	return audio.EncodeWAV(pcm, audio.Format{Channels: 1, SampleRate: sampleRate, Bits: 16})
}

func TestClipCutsWAV(t *testing.T) {
	wav := pcmWAV(t, 8000, 1)

	got, mime := Clip(wav, "audio/wav", 250, 750)
	assert.Equal(t, "audio/wav", mime)
	require.Len(t, got, 44+8000)

	f, pcm, err := audio.ParseWAV(got)
	require.NoError(t, err)
	assert.Equal(t, 8000, f.SampleRate)
	assert.Equal(t, 1, f.Channels)
	// First kept frame is frame 2000, byte offset 4000.
	assert.Equal(t, byte(4000%256), pcm[0])
}

func TestClipFallsBackToWholeRecording(t *testing.T) {
	wav := pcmWAV(t, 8000, 0.5)
	tests := []struct {
		name       string
		data       []byte
		mime       string
		start, end int64
	}{
		{"webm", []byte("\x1aE\xdf\xa3webm"), "audio/webm", 0, 1000},
		{"empty window", wav, "audio/wav", 500, 500},
		{"window past end", wav, "audio/wav", 900, 1500},
		{"truncated", wav[:20], "audio/wav", 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, mime := Clip(tt.data, tt.mime, tt.start, tt.end)
			assert.Equal(t, tt.data, got)
			assert.Equal(t, tt.mime, mime)
		})
	}
}

func TestSubmitAttachesClipOnce(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemoryStore()
	require.NoError(t, blobs.Put(ctx, blob.Blob{Key: "lm_audio_s_1", Data: pcmWAV(t, 8000, 2), MIME: "audio/wav"}))

	creator := &fakeCreator{release: make(chan struct{})}
	flow := New(creator, blobs, nil)

	var wg sync.WaitGroup
	results := make([]*store.Dispute, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := flow.Submit(ctx, Request{SessionWordID: 7, AudioKey: "lm_audio_s_1", StartMs: 0, EndMs: 1000})
			if err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			results[i] = d
		}(i)
	}
	close(creator.release)
	wg.Wait()

	assert.Equal(t, int32(1), creator.calls.Load())
	for _, d := range results {
		require.NotNil(t, d)
		assert.Equal(t, int64(1), d.ID)
	}
	require.Len(t, creator.reqs, 1)
	assert.Len(t, creator.reqs[0].Audio, 44+16000)
	assert.True(t, flow.Sent(7))
	assert.False(t, flow.Sent(8))
}

func TestSubmitWithoutRecording(t *testing.T) {
	creator := &fakeCreator{}
	flow := New(creator, blob.NewMemoryStore(), nil)
	d, err := flow.Submit(context.Background(), Request{SessionWordID: 1, AudioKey: "gone"})
	require.NoError(t, err)
	assert.False(t, d.HasAudio)
}

func TestSubmitErrorIsNotCached(t *testing.T) {
	creator := &fakeCreator{err: errors.New("offline")}
	flow := New(creator, nil, nil)
	_, err := flow.Submit(context.Background(), Request{SessionWordID: 1})
	require.Error(t, err)
	assert.False(t, flow.Sent(1))

	creator.err = nil
	_, err = flow.Submit(context.Background(), Request{SessionWordID: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(2), creator.calls.Load())
}

func TestDiscardIsIdempotent(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemoryStore()
	require.NoError(t, blobs.Put(ctx, blob.Blob{Key: "k", Data: []byte("x")}))
	flow := New(&fakeCreator{}, blobs, nil)

	ok, err := flow.HasRecording(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, flow.Discard(ctx, "k"))
		}()
	}
	wg.Wait()
	require.NoError(t, flow.Discard(ctx, "k"))

	ok, err = flow.HasRecording(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, blobs.Keys())
}
