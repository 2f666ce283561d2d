package conversation

import (
	"testing"
	"time"

	"github.com/solmirre/ally/internal/domain"
	"github.com/solmirre/ally/internal/logger"
	"github.com/solmirre/ally/internal/storage"
)

const structuredReply = "Tone: Hopeful\n\nReflection: Small lights gather.\n\nAction: Write one sentence of gratitude.\n\nMemory: Save"

func newTestStore(t *testing.T, opts ...Option) (*Store, storage.KV) {
	t.Helper()
	kv := storage.NewMemoryKV()
	log := logger.New(logger.LevelOff, nil)
	return NewStore(kv, log, opts...), kv
}

func TestSeedsWelcomeMessage(t *testing.T) {
	s, _ := newTestStore(t)

	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 seeded message, got %d", len(msgs))
	}
	if msgs[0].Role != domain.RoleModel || msgs[0].ID == "" {
		t.Errorf("welcome message malformed: %+v", msgs[0])
	}
	if tone, ok := s.CurrentTone(); !ok || tone != "Meditative" {
		t.Errorf("welcome tone: got %q/%v, want Meditative", tone, ok)
	}
}

func TestAppendAssignsIDsAndPersists(t *testing.T) {
	s, kv := newTestStore(t)

	m := s.Append(domain.Message{Role: domain.RoleUser, Content: "hello"})
	if m.ID == "" {
		t.Fatalf("append should assign an id")
	}

	// A second store over the same KV sees the appended message.
	reloaded := NewStore(kv, logger.New(logger.LevelOff, nil))
	msgs := reloaded.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages after reload, got %d", len(msgs))
	}
	if msgs[1].ID != m.ID || msgs[1].Content != "hello" {
		t.Errorf("reloaded message mismatch: %+v", msgs[1])
	}
}

func TestCommitToMemoryCreatesJournalEntry(t *testing.T) {
	fixed := time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC)
	s, _ := newTestStore(t, WithClock(func() time.Time { return fixed }))

	user := s.Append(domain.Message{Role: domain.RoleUser, Content: "i feel small today"})
	model := s.Append(domain.Message{Role: domain.RoleModel, Content: structuredReply})

	if !s.CommitToMemory(user, model) {
		t.Fatalf("commit with reflection+action should create a journal entry")
	}

	if got := s.Memory(); len(got) != 2 {
		t.Errorf("memory should hold the pair, got %d", len(got))
	}

	journal := s.Journal()
	if len(journal) != 1 {
		t.Fatalf("expected 1 journal entry, got %d", len(journal))
	}
	e := journal[0]
	if e.ID != model.ID {
		t.Errorf("entry id should equal the model message id")
	}
	if e.Date != "2025-03-09" {
		t.Errorf("date: got %q", e.Date)
	}
	if e.Tone != "Hopeful" || e.Reflection != "Small lights gather." || e.Action != "Write one sentence of gratitude." {
		t.Errorf("entry fields: %+v", e)
	}
}

func TestCommitToMemoryJournalIdempotence(t *testing.T) {
	s, _ := newTestStore(t)

	user := s.Append(domain.Message{Role: domain.RoleUser, Content: "hello"})
	model := s.Append(domain.Message{Role: domain.RoleModel, Content: structuredReply})

	if !s.CommitToMemory(user, model) {
		t.Fatalf("first commit should journal")
	}
	if s.CommitToMemory(user, model) {
		t.Fatalf("second commit must not journal again")
	}

	if got := s.Memory(); len(got) != 4 {
		t.Errorf("memory grows on every commit, got %d entries", len(got))
	}
	if got := s.Journal(); len(got) != 1 {
		t.Errorf("journal must not duplicate, got %d entries", len(got))
	}
}

func TestCommitToMemoryWithoutReflectionAction(t *testing.T) {
	s, _ := newTestStore(t)

	user := s.Append(domain.Message{Role: domain.RoleUser, Content: "hello"})
	model := s.Append(domain.Message{Role: domain.RoleModel, Content: "a free-form spark with no structure"})

	// Fallback parse: reflection is the full text but the action is
	// empty, so Memory grows and Journal does not.
	if s.CommitToMemory(user, model) {
		t.Fatalf("commit without an action must not journal")
	}
	if got := s.Memory(); len(got) != 2 {
		t.Errorf("memory should still grow, got %d", len(got))
	}
	if got := s.Journal(); len(got) != 0 {
		t.Errorf("journal should stay empty, got %d", len(got))
	}
}

func TestCurrentToneSkipsRitualsAndUsers(t *testing.T) {
	s, _ := newTestStore(t)

	s.Append(domain.Message{Role: domain.RoleModel, Content: "Tone: Pensive\nReflection: R.\nAction: A."})
	s.Append(domain.Message{Role: domain.RoleUser, Content: "Tone: Sneaky user line"})
	s.Append(domain.Message{
		Role:     domain.RoleModel,
		IsRitual: true,
		Content:  "Intention: I.\nVisualization: V.\nResonance: R.",
	})

	if tone, ok := s.CurrentTone(); !ok || tone != "Pensive" {
		t.Errorf("got %q/%v, want Pensive", tone, ok)
	}
}

func TestCurrentToneUnchangedWhenAbsent(t *testing.T) {
	kv := storage.NewMemoryKV()
	log := logger.New(logger.LevelOff, nil)
	s := NewStore(kv, log)

	// Bury the seeded welcome under unstructured replies only.
	s.Append(domain.Message{Role: domain.RoleModel, Content: "a plain spark"})

	// The welcome message still carries the only tone.
	if tone, ok := s.CurrentTone(); !ok || tone != "Meditative" {
		t.Errorf("got %q/%v, want Meditative", tone, ok)
	}
}

func TestLastExchange(t *testing.T) {
	s, _ := newTestStore(t)

	if _, _, ok := s.LastExchange(); ok {
		t.Fatalf("no exchange yet: only the welcome message exists")
	}

	user := s.Append(domain.Message{Role: domain.RoleUser, Content: "hi"})
	model := s.Append(domain.Message{Role: domain.RoleModel, Content: structuredReply})
	s.Append(domain.Message{Role: domain.RoleModel, IsRitual: true, Content: "Intention: I."})

	u, m, ok := s.LastExchange()
	if !ok {
		t.Fatalf("expected an exchange")
	}
	if u.ID != user.ID || m.ID != model.ID {
		t.Errorf("exchange mismatch: got %s/%s", u.ID, m.ID)
	}
}

func TestRitualDailyGate(t *testing.T) {
	day := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	s, kv := newTestStore(t, WithClock(func() time.Time { return day }))

	if !s.RitualAvailable() {
		t.Fatalf("ritual should be available on a fresh day")
	}
	s.MarkRitualUsed()
	if s.RitualAvailable() {
		t.Fatalf("second ritual on the same day must be gated")
	}

	// Later the same day: still gated, even across a restart.
	day = day.Add(10 * time.Hour)
	reloaded := NewStore(kv, logger.New(logger.LevelOff, nil), WithClock(func() time.Time { return day }))
	if reloaded.RitualAvailable() {
		t.Fatalf("gate must survive rehydration")
	}

	// Next calendar day: open again.
	day = day.Add(24 * time.Hour)
	if !reloaded.RitualAvailable() {
		t.Fatalf("a new day should permit a ritual")
	}
}

func TestImageTransitions(t *testing.T) {
	s, kv := newTestStore(t)

	m := s.Append(domain.Message{Role: domain.RoleModel, Content: structuredReply})

	s.BeginImage(m.ID)
	if got := s.Messages(); !got[1].IsGeneratingImage {
		t.Fatalf("expected generating flag set")
	}

	s.FinishImage(m.ID, "data:image/jpeg;base64,xyz", "Light gathers where attention rests.")
	got := s.Messages()[1]
	if got.IsGeneratingImage || got.ImageURL == "" || got.MandalaThought == "" {
		t.Errorf("finish should populate image fields: %+v", got)
	}
	if got.Content != structuredReply {
		t.Errorf("content must never change on image transitions")
	}

	// Transitions persist.
	reloaded := NewStore(kv, logger.New(logger.LevelOff, nil))
	if reloaded.Messages()[1].ImageURL != "data:image/jpeg;base64,xyz" {
		t.Errorf("image fields should survive rehydration")
	}

	s.AbortImage(m.ID)
	if s.Messages()[1].IsGeneratingImage {
		t.Errorf("abort should clear the generating flag")
	}
}

func TestWritingsRoundTrip(t *testing.T) {
	s, kv := newTestStore(t)

	s.SetWritings("the river does not hurry")
	if got := s.Writings(); got != "the river does not hurry" {
		t.Fatalf("got %q", got)
	}

	reloaded := NewStore(kv, logger.New(logger.LevelOff, nil))
	if got := reloaded.Writings(); got != "the river does not hurry" {
		t.Errorf("writings should survive rehydration, got %q", got)
	}
}
