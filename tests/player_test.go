package tests

import (
	"errors"
	"testing"

	"smartmusic/internal/player"
	"smartmusic/pkg/models"
)

// fakeAudio records every transport call and can be told to fail Play.
type fakeAudio struct {
	sources []string
	plays   int
	pauses  int
	seeks   []float64
	volumes []float64
	playErr error
}

func (f *fakeAudio) SetSource(url string) { f.sources = append(f.sources, url) }
func (f *fakeAudio) Play() error          { f.plays++; return f.playErr }
func (f *fakeAudio) Pause()               { f.pauses++ }
func (f *fakeAudio) Seek(seconds float64) { f.seeks = append(f.seeks, seconds) }
func (f *fakeAudio) SetVolume(v float64)  { f.volumes = append(f.volumes, v) }

func testQueue() []models.Song {
	return []models.Song{
		{ID: 1, Title: "Alpha", File: "alpha.mp3"},
		{ID: 2, Title: "Beta", File: "beta.mp3"},
		{ID: 3, Title: "Gamma", File: "gamma.mp3"},
	}
}

func TestLoadAndPlay(t *testing.T) {
	audio := &fakeAudio{}
	c := player.NewController(audio)

	t.Run("BoundsChecked", func(t *testing.T) {
		if err := c.LoadAndPlay(0, nil); !errors.Is(err, player.ErrIndexOutOfRange) {
			t.Errorf("Expected ErrIndexOutOfRange on empty queue, got %v", err)
		}
		if err := c.LoadAndPlay(3, testQueue()); !errors.Is(err, player.ErrIndexOutOfRange) {
			t.Errorf("Expected ErrIndexOutOfRange for index past the queue, got %v", err)
		}
		if err := c.LoadAndPlay(-1, testQueue()); !errors.Is(err, player.ErrIndexOutOfRange) {
			t.Errorf("Expected ErrIndexOutOfRange for negative index, got %v", err)
		}
		if len(audio.sources) != 0 {
			t.Error("Rejected loads must not touch the audio primitive")
		}
	})

	t.Run("LoadsAndStarts", func(t *testing.T) {
		if err := c.LoadAndPlay(1, testQueue()); err != nil {
			t.Fatalf("Failed to load: %v", err)
		}

		snap := c.Snapshot()
		if snap.Index != 1 || snap.Song == nil || snap.Song.ID != 2 {
			t.Errorf("Expected Beta at index 1, got %+v", snap)
		}
		if !snap.IsPlaying {
			t.Error("Expected playback to be marked started")
		}
		if snap.CurrentTime != 0 {
			t.Errorf("Expected currentTime reset, got %f", snap.CurrentTime)
		}
		if audio.sources[len(audio.sources)-1] != "beta.mp3" {
			t.Errorf("Expected beta.mp3 loaded, got %v", audio.sources)
		}
	})

	t.Run("KeepsQueueWhenNil", func(t *testing.T) {
		if err := c.LoadAndPlay(2, nil); err != nil {
			t.Fatalf("Failed to load within existing queue: %v", err)
		}
		if snap := c.Snapshot(); snap.QueueLength != 3 || snap.Song.ID != 3 {
			t.Errorf("Expected existing queue with Gamma selected, got %+v", snap)
		}
	})
}

func TestPlayFailureIsNonFatal(t *testing.T) {
	audio := &fakeAudio{playErr: errors.New("gesture required")}
	c := player.NewController(audio)

	if err := c.LoadAndPlay(0, testQueue()); err != nil {
		t.Fatalf("Expected load to succeed despite play failure, got %v", err)
	}

	snap := c.Snapshot()
	if snap.IsPlaying {
		t.Error("Expected isPlaying=false after a failed play")
	}
	if snap.Song == nil || snap.Song.ID != 1 {
		t.Error("Expected the song to stay selected after a failed play")
	}

	// An explicit user action recovers
	audio.playErr = nil
	c.TogglePlayPause()
	if !c.Snapshot().IsPlaying {
		t.Error("Expected toggle to resume after failure cleared")
	}
}

func TestTogglePlayPause(t *testing.T) {
	audio := &fakeAudio{}
	c := player.NewController(audio)

	t.Run("EmptyQueueIsNoOp", func(t *testing.T) {
		c.TogglePlayPause()
		if audio.plays != 0 || audio.pauses != 0 {
			t.Error("Toggle on an empty queue must not touch the audio primitive")
		}
	})

	t.Run("OptimisticFlip", func(t *testing.T) {
		if err := c.LoadAndPlay(0, testQueue()); err != nil {
			t.Fatalf("Failed to load: %v", err)
		}

		c.TogglePlayPause()
		if c.Snapshot().IsPlaying {
			t.Error("Expected pause")
		}
		if audio.pauses != 1 {
			t.Errorf("Expected 1 pause call, got %d", audio.pauses)
		}

		c.TogglePlayPause()
		if !c.Snapshot().IsPlaying {
			t.Error("Expected resume")
		}
	})
}

func TestPlayNext(t *testing.T) {
	t.Run("NormalNoWrap", func(t *testing.T) {
		audio := &fakeAudio{}
		c := player.NewController(audio)
		if err := c.LoadAndPlay(2, testQueue()); err != nil {
			t.Fatalf("Failed to load: %v", err)
		}

		c.PlayNext()

		snap := c.Snapshot()
		if snap.Index != 2 {
			t.Errorf("Expected index to stay at the end under NORMAL, got %d", snap.Index)
		}
		if !snap.IsPlaying {
			t.Error("The end-of-queue no-op must leave isPlaying untouched")
		}
	})

	t.Run("LoopWraps", func(t *testing.T) {
		audio := &fakeAudio{}
		c := player.NewController(audio)
		if err := c.LoadAndPlay(2, testQueue()); err != nil {
			t.Fatalf("Failed to load: %v", err)
		}
		if err := c.SetMode(player.ModeLoop); err != nil {
			t.Fatalf("Failed to set mode: %v", err)
		}

		c.PlayNext()

		if snap := c.Snapshot(); snap.Index != 0 {
			t.Errorf("Expected wrap to index 0 under LOOP, got %d", snap.Index)
		}
	})

	t.Run("ShuffleStaysInBounds", func(t *testing.T) {
		audio := &fakeAudio{}
		c := player.NewController(audio)
		if err := c.LoadAndPlay(0, testQueue()); err != nil {
			t.Fatalf("Failed to load: %v", err)
		}
		if err := c.SetMode(player.ModeShuffle); err != nil {
			t.Fatalf("Failed to set mode: %v", err)
		}

		for i := 0; i < 50; i++ {
			c.PlayNext()
			if snap := c.Snapshot(); snap.Index < 0 || snap.Index >= snap.QueueLength {
				t.Fatalf("Shuffle produced out-of-bounds index %d", snap.Index)
			}
		}
	})
}

func TestPlayPrevWrapsUnconditionally(t *testing.T) {
	audio := &fakeAudio{}
	c := player.NewController(audio)
	if err := c.LoadAndPlay(0, testQueue()); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	c.PlayPrev()

	if snap := c.Snapshot(); snap.Index != 2 {
		t.Errorf("Expected prev from 0 to wrap to 2 under NORMAL, got %d", snap.Index)
	}
}

func TestHandleEnded(t *testing.T) {
	t.Run("LoopOneReplays", func(t *testing.T) {
		audio := &fakeAudio{}
		c := player.NewController(audio)
		if err := c.LoadAndPlay(1, testQueue()); err != nil {
			t.Fatalf("Failed to load: %v", err)
		}
		if err := c.SetMode(player.ModeLoopOne); err != nil {
			t.Fatalf("Failed to set mode: %v", err)
		}

		loadsBefore := len(audio.sources)
		c.HandleEnded()

		snap := c.Snapshot()
		if snap.Index != 1 {
			t.Errorf("Expected LOOP_ONE to keep index 1, got %d", snap.Index)
		}
		if len(audio.sources) != loadsBefore {
			t.Error("LOOP_ONE replay must not reload the source")
		}
		if len(audio.seeks) == 0 || audio.seeks[len(audio.seeks)-1] != 0 {
			t.Error("Expected a seek to 0 on replay")
		}
		if !snap.IsPlaying {
			t.Error("Expected replay to keep playing")
		}
	})

	t.Run("OtherwiseAdvances", func(t *testing.T) {
		audio := &fakeAudio{}
		c := player.NewController(audio)
		if err := c.LoadAndPlay(0, testQueue()); err != nil {
			t.Fatalf("Failed to load: %v", err)
		}

		c.HandleEnded()

		if snap := c.Snapshot(); snap.Index != 1 {
			t.Errorf("Expected ended to advance to index 1, got %d", snap.Index)
		}
	})
}

func TestSeekAndVolume(t *testing.T) {
	audio := &fakeAudio{}
	c := player.NewController(audio)
	if err := c.LoadAndPlay(0, testQueue()); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	t.Run("SeekClampsNegative", func(t *testing.T) {
		c.Seek(-5)
		if snap := c.Snapshot(); snap.CurrentTime != 0 {
			t.Errorf("Expected seek clamped to 0, got %f", snap.CurrentTime)
		}

		c.Seek(42.5)
		if snap := c.Snapshot(); snap.CurrentTime != 42.5 {
			t.Errorf("Expected optimistic currentTime 42.5, got %f", snap.CurrentTime)
		}
	})

	t.Run("VolumeClamps", func(t *testing.T) {
		c.SetVolume(1.5)
		if snap := c.Snapshot(); snap.Volume != 1 {
			t.Errorf("Expected volume clamped to 1, got %f", snap.Volume)
		}

		c.SetVolume(-0.2)
		if snap := c.Snapshot(); snap.Volume != 0 {
			t.Errorf("Expected volume clamped to 0, got %f", snap.Volume)
		}

		c.SetVolume(0.6)
		if audio.volumes[len(audio.volumes)-1] != 0.6 {
			t.Errorf("Expected 0.6 forwarded, got %v", audio.volumes)
		}
	})

	t.Run("Muted", func(t *testing.T) {
		c.SetMuted(true)
		if !c.Snapshot().IsMuted {
			t.Error("Expected muted state")
		}
		c.SetMuted(false)
		if c.Snapshot().IsMuted {
			t.Error("Expected unmuted state")
		}
	})
}

func TestModes(t *testing.T) {
	audio := &fakeAudio{}
	c := player.NewController(audio)

	t.Run("CycleSkipsLoopOne", func(t *testing.T) {
		sequence := []player.Mode{player.ModeShuffle, player.ModeLoop, player.ModeNormal}
		for _, want := range sequence {
			if got := c.CycleMode(); got != want {
				t.Errorf("Expected cycle to reach %s, got %s", want, got)
			}
		}
	})

	t.Run("SetModeReachesLoopOne", func(t *testing.T) {
		if err := c.SetMode(player.ModeLoopOne); err != nil {
			t.Fatalf("Failed to set LOOP_ONE: %v", err)
		}
		if c.Mode() != player.ModeLoopOne {
			t.Errorf("Expected LOOP_ONE, got %s", c.Mode())
		}

		// Cycling out of LOOP_ONE lands on NORMAL
		if got := c.CycleMode(); got != player.ModeNormal {
			t.Errorf("Expected NORMAL after cycling out of LOOP_ONE, got %s", got)
		}
	})

	t.Run("SetModeRejectsUnknown", func(t *testing.T) {
		if err := c.SetMode(player.Mode("BACKWARDS")); err == nil {
			t.Error("Expected error for unknown mode")
		}
	})
}

func TestSubscribe(t *testing.T) {
	audio := &fakeAudio{}
	c := player.NewController(audio)

	ch := c.Subscribe()
	defer c.Unsubscribe(ch)

	if err := c.LoadAndPlay(0, testQueue()); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	select {
	case snap := <-ch:
		if snap.Song == nil || snap.Song.ID != 1 {
			t.Errorf("Expected notification for Alpha, got %+v", snap)
		}
	default:
		t.Error("Expected a buffered notification after LoadAndPlay")
	}
}

func TestRelayBuffersCommands(t *testing.T) {
	relay := player.NewRelay()
	c := player.NewController(relay)

	if err := c.LoadAndPlay(0, testQueue()); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	c.SetVolume(0.5)

	commands := relay.Since(0)
	if len(commands) != 3 { // load, play, volume
		t.Fatalf("Expected 3 commands, got %d", len(commands))
	}
	if commands[0].Op != "load" || commands[0].Source != "alpha.mp3" {
		t.Errorf("Unexpected first command: %+v", commands[0])
	}
	if commands[1].Op != "play" {
		t.Errorf("Expected play second, got %+v", commands[1])
	}
	if commands[2].Op != "volume" || commands[2].Value != 0.5 {
		t.Errorf("Expected volume 0.5 third, got %+v", commands[2])
	}

	// Sequence numbers are strictly increasing and Since skips applied ones
	if commands[0].Seq >= commands[1].Seq || commands[1].Seq >= commands[2].Seq {
		t.Error("Expected strictly increasing sequence numbers")
	}
	rest := relay.Since(commands[1].Seq)
	if len(rest) != 1 || rest[0].Op != "volume" {
		t.Errorf("Expected only the volume command after seq %d, got %+v", commands[1].Seq, rest)
	}
	if relay.LastSeq() != commands[2].Seq {
		t.Errorf("Expected LastSeq %d, got %d", commands[2].Seq, relay.LastSeq())
	}
}
