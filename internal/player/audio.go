package player

import (
	"sync"
	"time"
)

// Command is a transport instruction for a remote rendering client. Commands
// are sequence-numbered so a client can fetch everything it has not yet
// applied.
type Command struct {
	Seq    uint64    `json:"seq"`
	Op     string    `json:"op"` // load, play, pause, seek, volume
	Source string    `json:"source,omitempty"`
	Value  float64   `json:"value,omitempty"`
	At     time.Time `json:"at"`
}

// relayBufferSize bounds the command backlog kept for slow clients.
const relayBufferSize = 64

// Relay implements Audio for a browser-hosted audio element. The server does
// not render audio itself: transport commands are buffered here and the
// rendering client polls for them, reporting time/ended/play-failure events
// back over HTTP. Play never fails locally; gesture-policy failures arrive
// later as an event.
type Relay struct {
	mutex    sync.RWMutex
	seq      uint64
	commands []Command
}

// NewRelay creates an empty command relay.
func NewRelay() *Relay {
	return &Relay{commands: make([]Command, 0, relayBufferSize)}
}

func (r *Relay) push(cmd Command) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.seq++
	cmd.Seq = r.seq
	cmd.At = time.Now()

	r.commands = append(r.commands, cmd)
	if len(r.commands) > relayBufferSize {
		r.commands = r.commands[len(r.commands)-relayBufferSize:]
	}
}

// SetSource queues a load command for the given playable-content locator.
func (r *Relay) SetSource(url string) {
	r.push(Command{Op: "load", Source: url})
}

// Play queues a play command. The returned error is always nil: the remote
// client reports failures asynchronously.
func (r *Relay) Play() error {
	r.push(Command{Op: "play"})
	return nil
}

// Pause queues a pause command.
func (r *Relay) Pause() {
	r.push(Command{Op: "pause"})
}

// Seek queues a seek command.
func (r *Relay) Seek(seconds float64) {
	r.push(Command{Op: "seek", Value: seconds})
}

// SetVolume queues a volume command.
func (r *Relay) SetVolume(v float64) {
	r.push(Command{Op: "volume", Value: v})
}

// Since returns all buffered commands with a sequence number greater than
// seq, oldest first.
func (r *Relay) Since(seq uint64) []Command {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []Command
	for _, cmd := range r.commands {
		if cmd.Seq > seq {
			out = append(out, cmd)
		}
	}
	return out
}

// LastSeq returns the sequence number of the most recent command.
func (r *Relay) LastSeq() uint64 {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.seq
}
