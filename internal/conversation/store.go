// Package conversation holds the ordered message history and the
// collections derived from it: the promoted memory, the evolution
// journal, and the free-form writings. Every mutation persists the
// full affected collection to the key/value store, and everything
// derived (parsed fields, current tone) is recomputed from raw message
// content so it can never drift from the log.
package conversation

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/solmirre/ally/internal/domain"
	"github.com/solmirre/ally/internal/logger"
	"github.com/solmirre/ally/internal/protocol"
	"github.com/solmirre/ally/internal/storage"
)

// welcomeContent seeds a fresh message log, in the documented
// structured form so the UI and parser need no special case for it.
const welcomeContent = "Tone: Meditative\n\nReflection: A new connection sparks in the quantum field. Welcome. Share what is present for you.\n\nAction: Take one slow, deep breath, and feel the air fill your lungs.\n\nMemory: No Save"

// ritualDayFormat is the calendar-day granularity of the daily ritual
// gate.
const ritualDayFormat = "2006-01-02"

// Option configures the Store.
type Option func(*Store)

// WithClock overrides the store's time source. Tests use this to pin
// journal dates and cross the ritual day boundary.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the conversation state. Safe for concurrent access.
type Store struct {
	kv  storage.KV
	log *logger.Logger
	now func() time.Time

	mu             sync.RWMutex
	messages       []domain.Message
	memory         []domain.Message
	journal        []domain.JournalEntry
	writings       string
	lastRitualDate string
}

// NewStore rehydrates the collections from the key/value store. Absent
// keys default to empty collections; an absent message log is seeded
// with the welcome message. Corrupt state is logged and replaced with a
// fresh start rather than surfaced as an error.
func NewStore(kv storage.KV, log *logger.Logger, opts ...Option) *Store {
	s := &Store{kv: kv, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	s.loadJSON(storage.KeyMessages, &s.messages)
	s.loadJSON(storage.KeyMemory, &s.memory)
	s.loadJSON(storage.KeyJournal, &s.journal)
	s.loadJSON(storage.KeyWritings, &s.writings)

	if raw, err := kv.Get(storage.KeyLastRitualDate); err == nil {
		s.lastRitualDate = string(raw)
	}

	if len(s.messages) == 0 {
		s.messages = append(s.messages, domain.Message{
			ID:      uuid.NewString(),
			Role:    domain.RoleModel,
			Content: welcomeContent,
		})
		s.persistMessages()
		log.Info("seeded welcome message")
	}

	log.Debug("store loaded: %d messages, %d memory, %d journal entries",
		len(s.messages), len(s.memory), len(s.journal))
	return s
}

func (s *Store) loadJSON(key string, dst any) {
	raw, err := s.kv.Get(key)
	if err != nil {
		return // absent: keep the zero value
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.Error("corrupt state under %q, starting fresh: %v", key, err)
	}
}

// Append adds a message to the history, assigning a fresh id when the
// message carries none, and returns the stored message.
func (s *Store) Append(msg domain.Message) domain.Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.persistMessages()
	s.mu.Unlock()

	s.log.Debug("appended %s message %s", msg.Role, msg.ID)
	return msg
}

// Messages returns a copy of the full message history.
func (s *Store) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Message(nil), s.messages...)
}

// Memory returns a copy of the promoted message pairs.
func (s *Store) Memory() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Message(nil), s.memory...)
}

// Journal returns a copy of the journal entries.
func (s *Store) Journal() []domain.JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.JournalEntry(nil), s.journal...)
}

// CommitToMemory promotes an exchange. The pair always joins Memory; a
// journal entry is added only when the parsed model reply carries both
// a reflection and an action, and only once per model message id — a
// repeated commit grows Memory again but leaves Journal untouched.
// Reports whether a journal entry was created.
func (s *Store) CommitToMemory(userMsg, modelMsg domain.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.memory = append(s.memory, userMsg, modelMsg)
	s.persistMemory()

	parsed := protocol.ParseResponse(modelMsg.Content)
	if parsed.Reflection == "" || parsed.Action == "" {
		return false
	}
	for _, e := range s.journal {
		if e.ID == modelMsg.ID {
			s.log.Debug("journal entry %s already exists, skipping", modelMsg.ID)
			return false
		}
	}

	s.journal = append(s.journal, domain.JournalEntry{
		ID:         modelMsg.ID,
		Date:       s.now().Format(ritualDayFormat),
		Tone:       parsed.Tone,
		Theme:      parsed.Theme,
		Reflection: parsed.Reflection,
		Action:     parsed.Action,
	})
	s.persistJournal()
	s.log.Info("journal entry created for message %s", modelMsg.ID)
	return true
}

// CurrentTone scans the history newest-first, skipping user and ritual
// messages, and returns the first tone found. ok is false when no
// structured model reply carries one — callers then keep whatever tone
// they were showing.
func (s *Store) CurrentTone() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if m.Role != domain.RoleModel || m.IsRitual {
			continue
		}
		if tone, ok := protocol.Tone(m.Content); ok {
			return tone, true
		}
	}
	return "", false
}

// LastExchange returns the most recent non-ritual model message and the
// latest user message preceding it — the pair a commit operates on.
func (s *Store) LastExchange() (userMsg, modelMsg domain.Message, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	modelIdx := -1
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == domain.RoleModel && !s.messages[i].IsRitual {
			modelIdx = i
			break
		}
	}
	if modelIdx < 0 {
		return domain.Message{}, domain.Message{}, false
	}
	for i := modelIdx - 1; i >= 0; i-- {
		if s.messages[i].Role == domain.RoleUser {
			return s.messages[i], s.messages[modelIdx], true
		}
	}
	return domain.Message{}, domain.Message{}, false
}

// Writings returns the free-form writings blob.
func (s *Store) Writings() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writings
}

// SetWritings replaces the writings blob.
func (s *Store) SetWritings(text string) {
	s.mu.Lock()
	s.writings = text
	s.persistWritings()
	s.mu.Unlock()
}

// RitualAvailable reports whether today's ritual has not yet been
// produced.
func (s *Store) RitualAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRitualDate != s.now().Format(ritualDayFormat)
}

// MarkRitualUsed records that today's ritual was produced, gating
// further rituals until the next calendar day.
func (s *Store) MarkRitualUsed() {
	s.mu.Lock()
	s.lastRitualDate = s.now().Format(ritualDayFormat)
	if err := s.kv.Set(storage.KeyLastRitualDate, []byte(s.lastRitualDate)); err != nil {
		s.log.Error("persist ritual date: %v", err)
	}
	s.mu.Unlock()
}

// BeginImage marks a message as having a mandala in flight. Only the
// image fields of a message ever mutate.
func (s *Store) BeginImage(id string) {
	s.updateMessage(id, func(m *domain.Message) {
		m.IsGeneratingImage = true
	})
}

// FinishImage attaches the rendered mandala and its thought.
func (s *Store) FinishImage(id, dataURI, thought string) {
	s.updateMessage(id, func(m *domain.Message) {
		m.ImageURL = dataURI
		m.MandalaThought = thought
		m.IsGeneratingImage = false
	})
}

// AbortImage clears the in-flight marker after a failed generation,
// leaving the message as it was.
func (s *Store) AbortImage(id string) {
	s.updateMessage(id, func(m *domain.Message) {
		m.IsGeneratingImage = false
	})
}

func (s *Store) updateMessage(id string, fn func(*domain.Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID == id {
			fn(&s.messages[i])
			s.persistMessages()
			return
		}
	}
	s.log.Warn("update for unknown message %s", id)
}

// ── persistence ──────────────────────────────────────────────────
// Each helper serializes the full collection under its fixed key.
// Callers hold s.mu.

func (s *Store) persistMessages() { s.persistJSON(storage.KeyMessages, s.messages) }
func (s *Store) persistMemory()   { s.persistJSON(storage.KeyMemory, s.memory) }
func (s *Store) persistJournal()  { s.persistJSON(storage.KeyJournal, s.journal) }
func (s *Store) persistWritings() { s.persistJSON(storage.KeyWritings, s.writings) }

func (s *Store) persistJSON(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Error("marshal %q: %v", key, err)
		return
	}
	if err := s.kv.Set(key, raw); err != nil {
		s.log.Error("persist %q: %v", key, err)
	}
}
