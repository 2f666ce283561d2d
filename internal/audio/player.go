package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/solmirre/ally/internal/domain"
	"github.com/solmirre/ally/internal/logger"
)

// handle is one in-flight playback resource.
type handle interface {
	Play()
	Pause()
	IsPlaying() bool
	Close() error
}

// device owns the process-wide audio output and mints handles. There is
// exactly one device per process, created at startup and released at
// shutdown; speech and chimes share it.
type device interface {
	NewHandle(samples []float32) handle
	Close() error
}

// otoDevice backs the device with an oto context.
type otoDevice struct {
	ctx *oto.Context
}

func newOtoDevice() (*otoDevice, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatFloat32LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	return &otoDevice{ctx: ctx}, nil
}

func (d *otoDevice) NewHandle(samples []float32) handle {
	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(s))
	}
	return d.ctx.NewPlayer(bytes.NewReader(buf))
}

// Close suspends the context. oto contexts have no teardown beyond
// suspension; the device is released with the process.
func (d *otoDevice) Close() error {
	return d.ctx.Suspend()
}

// ControllerOption configures the Controller.
type ControllerOption func(*Controller)

// WithCache enables the speech PCM cache.
func WithCache(cache *Cache) ControllerOption {
	return func(c *Controller) { c.cache = cache }
}

// Controller owns playback of spoken messages. At most one spoken item
// plays at a time, system-wide: starting a new one always stops the
// current one first. Chimes bypass that rule entirely — they are
// fire-and-forget and may overlap speech.
type Controller struct {
	dev   device
	synth domain.SpeechSynthesizer
	log   *logger.Logger
	cache *Cache // nil = no caching

	mu       sync.Mutex
	active   handle
	activeID string
	gen      uint64 // bumped on every start/stop; stale watchers compare against it
}

// NewController initializes the system audio device and returns a
// playback controller. Returns an error when the device is unavailable;
// the app then runs text-only.
func NewController(synth domain.SpeechSynthesizer, log *logger.Logger, opts ...ControllerOption) (*Controller, error) {
	dev, err := newOtoDevice()
	if err != nil {
		return nil, err
	}
	log.Debug("audio device initialized (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return newController(dev, synth, log, opts...), nil
}

// newController wires a Controller to an explicit device. Tests use
// this with a fake.
func newController(dev device, synth domain.SpeechSynthesizer, log *logger.Logger, opts ...ControllerOption) *Controller {
	c := &Controller{dev: dev, synth: synth, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Play speaks text for the logical item id (a message id, or a
// synthesized id for journal playback). If id is already the active
// item, playback is stopped and not restarted — the toggle behaviour
// behind a play/pause affordance. Any other active item is stopped
// unconditionally before the new one starts.
//
// When synthesis yields no payload, the controller is left with no
// active handle and domain.ErrNoAudio is returned; the caller surfaces
// the failure.
func (c *Controller) Play(ctx context.Context, id, text string) error {
	c.mu.Lock()
	if c.active != nil && c.activeID == id {
		c.stopLocked()
		c.mu.Unlock()
		c.log.Debug("playback toggled off: %s", id)
		return nil
	}
	c.stopLocked()
	c.mu.Unlock()

	pcm, err := c.synthesize(ctx, text)
	if err != nil {
		return err
	}
	if len(pcm) == 0 {
		return domain.ErrNoAudio
	}

	channels := DecodePCM16(pcm, ChannelCount)
	if len(channels) == 0 || len(channels[0]) == 0 {
		return domain.ErrNoAudio
	}

	c.mu.Lock()
	// A racing Play may have started something while we were
	// synthesizing; stop it so exactly one handle survives.
	c.stopLocked()
	h := c.dev.NewHandle(channels[0])
	c.active = h
	c.activeID = id
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	h.Play()
	c.log.Debug("playback started: %s (%d frames)", id, len(channels[0]))
	go c.watch(h, gen)
	return nil
}

// watch waits for h to finish and clears the active state, unless a
// newer start/stop has superseded this generation — an explicit Stop
// and a natural completion must never both clear, and a finished item
// must never clear its successor's state.
func (c *Controller) watch(h handle, gen uint64) {
	for h.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	c.mu.Lock()
	if c.gen == gen {
		c.active = nil
		c.activeID = ""
		c.gen++
		c.log.Debug("playback finished")
	}
	c.mu.Unlock()

	h.Close()
}

// Stop halts the active playback immediately, if any. Idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
}

// stopLocked pauses and releases the active handle. The generation bump
// tells the handle's watcher it no longer owns the state. Must be
// called with c.mu held.
func (c *Controller) stopLocked() {
	if c.active == nil {
		return
	}
	c.active.Pause()
	c.active = nil
	c.activeID = ""
	c.gen++
	c.log.Debug("playback stopped")
}

// Playing reports the id of the currently active item, if any.
func (c *Controller) Playing() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID, c.active != nil
}

// Chime plays a short synthesized cue. Chimes never touch the active
// handle; they may overlap speech and each other.
func (c *Controller) Chime(kind ChimeKind) {
	h := c.dev.NewHandle(synthChime(kind))
	h.Play()
	go func() {
		for h.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		h.Close()
	}()
}

// Close stops playback and releases the audio device. Call exactly once
// at shutdown.
func (c *Controller) Close() error {
	c.Stop()
	return c.dev.Close()
}

// synthesize obtains raw PCM for text, consulting the cache when one is
// configured.
func (c *Controller) synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.cache != nil {
		if pcm, ok := c.cache.Get(text); ok {
			return pcm, nil
		}
	}

	payload, err := c.synth.Speech(ctx, text)
	if err != nil {
		return nil, err
	}
	if payload == "" {
		return nil, nil
	}

	pcm := DecodeBase64(payload)
	if c.cache != nil && len(pcm) > 0 {
		c.cache.Put(text, pcm)
	}
	return pcm, nil
}
