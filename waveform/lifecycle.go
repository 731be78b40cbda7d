package waveform

import "github.com/kbukum/wavechat/audio"

// lifecycle is everything built for one audio source: the playable handle,
// the surface and its overlay. It is owned by the loop goroutine.
type lifecycle struct {
	generation uint64
	source     audio.Source
	handle     *audio.Handle
	surface    Surface
	region     Region

	// aborted is set first thing on teardown; a load result for an aborted
	// lifecycle is discarded.
	aborted  bool
	ready    bool
	tornDown bool
}

func (lc *lifecycle) sourceName() string {
	if lc == nil || lc.source == nil {
		return ""
	}
	return lc.source.Name()
}
