package dispute

import "github.com/abhisek/laesemaskine/internal/audio"

// Clip cuts [startMs, endMs) out of a session recording. Only PCM WAV can be
// cut; any other format, or an empty window, returns the whole recording.
func Clip(data []byte, mime string, startMs, endMs int64) ([]byte, string) {
	if endMs <= startMs {
		return data, mime
	}
	f, pcm, err := audio.ParseWAV(data)
	if err != nil {
		return data, mime
	}
	align := f.BlockAlign()
	at := func(ms int64) int {
		n := int(ms*int64(f.SampleRate)/1000) * align
		return min(max(n, 0), len(pcm)/align*align)
	}
	lo, hi := at(startMs), at(endMs)
	if hi <= lo {
		return data, mime
	}
	return audio.EncodeWAV(pcm[lo:hi], f), "audio/wav"
}
