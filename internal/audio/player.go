package audio

import (
	"errors"
	"io"
	"sync"
)

// ErrPlaybackBlocked indicates the platform refused to start playback,
// typically because no user interaction has unlocked audio yet. Callers
// retry on the next user gesture.
var ErrPlaybackBlocked = errors.New("playback blocked by platform policy")

// Player is the audio/visual notification subsystem the engine drives.
// Implementations are best-effort; the engine never depends on delivery.
type Player interface {
	// TryPlay starts the alarm indication. Returns ErrPlaybackBlocked when
	// the platform denies playback until a user gesture unlocks it.
	TryPlay() error
	// Stop halts any playing indication. Stopping a silent player is a no-op.
	Stop()
}

// BellPlayer writes a terminal bell to an output stream. Playback is
// modeled as an explicit locked/unlocked resource: a locked player reports
// ErrPlaybackBlocked until Unlock is called.
type BellPlayer struct {
	mu       sync.Mutex
	out      io.Writer
	unlocked bool
}

// NewBellPlayer returns a player that is already unlocked; terminal output
// needs no gesture.
func NewBellPlayer(out io.Writer) *BellPlayer {
	return &BellPlayer{out: out, unlocked: true}
}

// NewLockedBellPlayer returns a player that stays blocked until Unlock.
func NewLockedBellPlayer(out io.Writer) *BellPlayer {
	return &BellPlayer{out: out}
}

func (p *BellPlayer) TryPlay() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.unlocked {
		return ErrPlaybackBlocked
	}
	if _, err := p.out.Write([]byte("\a")); err != nil {
		return err
	}
	return nil
}

func (p *BellPlayer) Stop() {}

// Unlock marks the playback resource as available.
func (p *BellPlayer) Unlock() {
	p.mu.Lock()
	p.unlocked = true
	p.mu.Unlock()
}
