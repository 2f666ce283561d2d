package audio

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/solmirre/ally/internal/logger"
)

// Cache is a thread-safe two-tier cache (in-memory + filesystem) for
// decoded speech PCM. The key is sha256(voice + ":" + text) so a voice
// change automatically misses until the voice is switched back.
//
// Disk behaviour is controlled by diskWrite:
//
//	diskWrite=true  -> reads from mem, then disk; writes to both.
//	diskWrite=false -> reads from mem, then disk; writes to mem only.
//
// The on-disk layer is always consulted, so previous runs give a warm
// start even when writes are off.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string][]byte // hash -> raw PCM bytes
	log       *logger.Logger
	voice     string
	cacheDir  string // empty = no disk layer
	diskWrite bool
	hits      int64
	misses    int64
}

// NewCache creates a speech PCM cache. An empty cacheDir disables the
// disk layer entirely.
func NewCache(voice, cacheDir string, diskWrite bool, log *logger.Logger) *Cache {
	c := &Cache{
		entries:   make(map[string][]byte),
		log:       log,
		voice:     voice,
		cacheDir:  cacheDir,
		diskWrite: diskWrite,
	}

	if cacheDir != "" && diskWrite {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			log.Error("cache: create dir %s: %v", cacheDir, err)
		}
	}

	return c
}

// Get returns cached PCM for the given text, checking memory first and
// the disk layer second.
func (c *Cache) Get(text string) ([]byte, bool) {
	key := c.hashKey(text)

	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return data, true
	}

	if c.cacheDir != "" {
		if diskData, err := os.ReadFile(c.diskPath(key)); err == nil {
			// Promote to memory for faster subsequent hits.
			c.mu.Lock()
			c.entries[key] = diskData
			c.hits++
			c.mu.Unlock()
			c.log.Debug("cache hit (disk): %d bytes", len(diskData))
			return diskData, true
		}
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return nil, false
}

// Put stores PCM for the given text. Always writes to memory; writes to
// disk only when diskWrite is enabled.
func (c *Cache) Put(text string, pcm []byte) {
	key := c.hashKey(text)

	c.mu.Lock()
	c.entries[key] = pcm
	c.mu.Unlock()

	if c.cacheDir != "" && c.diskWrite {
		path := c.diskPath(key)
		if err := os.WriteFile(path, pcm, 0o644); err != nil {
			c.log.Error("cache: disk write %s: %v", path, err)
		}
	}
}

// Len returns the number of in-memory entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *Cache) hashKey(text string) string {
	h := sha256.Sum256([]byte(c.voice + ":" + text))
	return hex.EncodeToString(h[:])
}

func (c *Cache) diskPath(key string) string {
	return filepath.Join(c.cacheDir, key+".pcm")
}
