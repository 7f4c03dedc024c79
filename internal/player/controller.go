package player

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"smartmusic/pkg/models"
)

// Mode is the transport repeat/shuffle policy governing PlayNext/HandleEnded.
type Mode string

const (
	ModeNormal  Mode = "NORMAL"
	ModeShuffle Mode = "SHUFFLE"
	ModeLoop    Mode = "LOOP"
	ModeLoopOne Mode = "LOOP_ONE"
)

// ValidMode reports whether m is a known transport mode.
func ValidMode(m Mode) bool {
	switch m {
	case ModeNormal, ModeShuffle, ModeLoop, ModeLoopOne:
		return true
	}
	return false
}

// Audio is the external audio-rendering primitive. The controller issues
// transport commands through it and receives feedback via HandleTimeUpdate,
// HandleEnded and HandlePlayFailure.
type Audio interface {
	SetSource(url string)
	Play() error
	Pause()
	Seek(seconds float64)
	SetVolume(v float64)
}

// ErrIndexOutOfRange is returned by LoadAndPlay for an index outside the
// target queue.
var ErrIndexOutOfRange = errors.New("queue index out of range")

// Snapshot is a point-in-time copy of the controller state.
type Snapshot struct {
	Song        *models.Song `json:"song,omitempty"`
	Index       int          `json:"index"`
	QueueLength int          `json:"queueLength"`
	Mode        Mode         `json:"mode"`
	IsPlaying   bool         `json:"isPlaying"`
	CurrentTime float64      `json:"currentTime"`
	Duration    float64      `json:"duration"`
	Volume      float64      `json:"volume"`
	IsMuted     bool         `json:"isMuted"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Controller owns the play queue, current index, transport mode and derived
// timing/volume state, and notifies subscribers on every change. IsPlaying is
// a UI-facing intent flag updated optimistically: it flips before the audio
// primitive confirms, and a later play-failure report corrects it.
type Controller struct {
	audio Audio

	mutex       sync.RWMutex
	queue       []models.Song
	index       int
	mode        Mode
	isPlaying   bool
	currentTime float64
	duration    float64
	volume      float64
	muted       bool
	updatedAt   time.Time

	rng       *rand.Rand
	listeners []chan Snapshot
}

// NewController creates a playback controller bound to an audio primitive.
func NewController(audio Audio) *Controller {
	return &Controller{
		audio:     audio,
		mode:      ModeNormal,
		volume:    0.8,
		updatedAt: time.Now(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		listeners: make([]chan Snapshot, 0),
	}
}

// LoadAndPlay selects the song at index, optionally replacing the queue
// first, and asks the audio primitive to load and play it. An index outside
// the target queue returns ErrIndexOutOfRange without touching state. A play
// failure is expected (e.g. a user gesture is required) and only clears
// isPlaying; a later explicit user action recovers.
func (c *Controller) LoadAndPlay(index int, newQueue []models.Song) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	target := c.queue
	if newQueue != nil {
		target = newQueue
	}
	if index < 0 || index >= len(target) {
		return ErrIndexOutOfRange
	}

	if newQueue != nil {
		c.queue = make([]models.Song, len(newQueue))
		copy(c.queue, newQueue)
	}

	c.startLocked(index)
	return nil
}

// startLocked points the audio primitive at the song at index and starts
// playback. Must be called with the lock held and a valid index.
func (c *Controller) startLocked(index int) {
	c.index = index
	song := c.queue[index]

	c.audio.SetSource(song.File)
	if err := c.audio.Play(); err != nil {
		c.isPlaying = false
	} else {
		c.isPlaying = true
	}
	c.currentTime = 0
	c.touchAndNotify()
}

// TogglePlayPause pauses when playing and plays when paused, flipping
// isPlaying optimistically.
func (c *Controller) TogglePlayPause() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(c.queue) == 0 {
		return
	}

	if c.isPlaying {
		c.audio.Pause()
	} else {
		// Failure surfaces later through HandlePlayFailure
		_ = c.audio.Play()
	}
	c.isPlaying = !c.isPlaying
	c.touchAndNotify()
}

// PlayNext advances according to the mode. SHUFFLE picks a uniformly random
// index, which may repeat the current track. Otherwise the index increments;
// overflowing the queue wraps to 0 only under LOOP and is a no-op under any
// other mode, leaving index and isPlaying untouched.
func (c *Controller) PlayNext() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(c.queue) == 0 {
		return
	}

	next := c.index + 1
	if c.mode == ModeShuffle {
		next = c.rng.Intn(len(c.queue))
	} else if next >= len(c.queue) {
		if c.mode != ModeLoop {
			return
		}
		next = 0
	}

	c.startLocked(next)
}

// PlayPrev steps back one track, wrapping to the last index from 0
// regardless of mode.
func (c *Controller) PlayPrev() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(c.queue) == 0 {
		return
	}

	prev := c.index - 1
	if prev < 0 {
		prev = len(c.queue) - 1
	}
	c.startLocked(prev)
}

// HandleEnded reacts to the audio primitive reporting the end of the current
// track: LOOP_ONE replays it, every other mode behaves as PlayNext.
func (c *Controller) HandleEnded() {
	c.mutex.Lock()
	if c.mode == ModeLoopOne && len(c.queue) > 0 {
		c.audio.Seek(0)
		if err := c.audio.Play(); err != nil {
			c.isPlaying = false
		} else {
			c.isPlaying = true
		}
		c.currentTime = 0
		c.touchAndNotify()
		c.mutex.Unlock()
		return
	}
	c.mutex.Unlock()

	c.PlayNext()
}

// Seek forwards to the audio primitive and updates currentTime immediately.
func (c *Controller) Seek(seconds float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	c.audio.Seek(seconds)
	c.currentTime = seconds
	c.touchAndNotify()
}

// SetVolume clamps v to [0,1], forwards it and stores it.
func (c *Controller) SetVolume(v float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	c.audio.SetVolume(v)
	c.volume = v
	c.touchAndNotify()
}

// SetMuted updates the mute flag.
func (c *Controller) SetMuted(muted bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.muted = muted
	c.touchAndNotify()
}

// CycleMode advances NORMAL → SHUFFLE → LOOP → NORMAL. LOOP_ONE is not part
// of the cycle; it is only reachable via SetMode. Cycling out of LOOP_ONE
// returns to NORMAL.
func (c *Controller) CycleMode() Mode {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	switch c.mode {
	case ModeNormal:
		c.mode = ModeShuffle
	case ModeShuffle:
		c.mode = ModeLoop
	default:
		c.mode = ModeNormal
	}
	c.touchAndNotify()
	return c.mode
}

// SetMode sets the transport mode directly.
func (c *Controller) SetMode(mode Mode) error {
	if !ValidMode(mode) {
		return errors.New("unknown mode: " + string(mode))
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.mode = mode
	c.touchAndNotify()
	return nil
}

// HandleTimeUpdate records timing feedback from the audio primitive.
func (c *Controller) HandleTimeUpdate(currentTime, duration float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.currentTime = currentTime
	c.duration = duration
	c.touchAndNotify()
}

// HandlePlayFailure corrects the optimistic isPlaying flag after the audio
// primitive reported that playback could not start.
func (c *Controller) HandlePlayFailure() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.isPlaying = false
	c.touchAndNotify()
}

// Current returns the current song, if the queue is non-empty and the index
// is valid.
func (c *Controller) Current() (models.Song, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if len(c.queue) == 0 || c.index < 0 || c.index >= len(c.queue) {
		return models.Song{}, false
	}
	return c.queue[c.index], true
}

// Mode returns the current transport mode.
func (c *Controller) Mode() Mode {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.mode
}

// Snapshot returns a copy of the current state (thread-safe).
func (c *Controller) Snapshot() Snapshot {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.snapshotLocked()
}

// snapshotLocked builds a Snapshot. Must be called with the lock held.
func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Index:       c.index,
		QueueLength: len(c.queue),
		Mode:        c.mode,
		IsPlaying:   c.isPlaying,
		CurrentTime: c.currentTime,
		Duration:    c.duration,
		Volume:      c.volume,
		IsMuted:     c.muted,
		UpdatedAt:   c.updatedAt,
	}
	if len(c.queue) > 0 && c.index >= 0 && c.index < len(c.queue) {
		song := c.queue[c.index]
		snap.Song = &song
	}
	return snap
}

// Subscribe adds a listener for state changes
func (c *Controller) Subscribe() <-chan Snapshot {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	ch := make(chan Snapshot, 10) // Buffered channel to prevent blocking
	c.listeners = append(c.listeners, ch)
	return ch
}

// Unsubscribe removes a listener (call this when done to prevent memory leaks)
func (c *Controller) Unsubscribe(ch <-chan Snapshot) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for i, listener := range c.listeners {
		if listener == ch {
			close(listener)
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			break
		}
	}
}

// touchAndNotify stamps the state and broadcasts a snapshot to all
// subscribers (must be called with lock held).
func (c *Controller) touchAndNotify() {
	c.updatedAt = time.Now()
	snap := c.snapshotLocked()
	for i := 0; i < len(c.listeners); i++ {
		select {
		case c.listeners[i] <- snap:
			// Successfully sent
		default:
			// Channel is full, remove it
			close(c.listeners[i])
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			i--
		}
	}
}
