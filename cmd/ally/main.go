// Quantum Ally — an empathic, metaphysical companion for the terminal.
//
// Usage:
//
//	ally [-verbose] [-quiet] [-ephemeral] [-no-audio]
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/solmirre/ally/internal/audio"
	"github.com/solmirre/ally/internal/conversation"
	"github.com/solmirre/ally/internal/display"
	"github.com/solmirre/ally/internal/domain"
	"github.com/solmirre/ally/internal/gemini"
	"github.com/solmirre/ally/internal/logger"
	"github.com/solmirre/ally/internal/protocol"
	"github.com/solmirre/ally/internal/storage"
)

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", ".ally-logs/ally.log", "file to write logs to (use \"stderr\" to log to console)")
	dataDir := flag.String("data-dir", ".ally-data", "directory for the conversation store and caches")
	ephemeral := flag.Bool("ephemeral", false, "keep everything in memory; nothing touches disk")
	noAudio := flag.Bool("no-audio", false, "disable speech playback and chimes")
	diskCache := flag.Bool("disk-cache", true, "persist the speech audio cache to disk (reads from disk even when false)")
	flag.Parse()

	// Configure logger.
	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Direct logs to a file by default so the REPL stays clean.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		dir := filepath.Dir(*logFile)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Redirect Go's default log package (used by third-party libs) to
	// the same output so it doesn't spam the terminal.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	// Set up context — cancelled when the UI quits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open the key/value store.
	var kv storage.KV
	if *ephemeral {
		kv = storage.NewMemoryKV()
		log.Info("ephemeral mode: conversation will not be persisted")
	} else {
		var err error
		kv, err = storage.OpenBadger(filepath.Join(*dataDir, "store"), log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: open store: %v\n", err)
			os.Exit(1)
		}
	}
	defer kv.Close()

	store := conversation.NewStore(kv, log)

	// Build the backend client if a key is available.
	var ai *gemini.Client
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("API_KEY")
	}
	if apiKey != "" {
		var err error
		ai, err = gemini.NewClient(ctx, apiKey, log)
		if err != nil {
			log.Error("gemini init failed, running offline: %v", err)
		} else {
			log.Info("gemini backend enabled")
		}
	} else {
		log.Info("gemini disabled: set GEMINI_API_KEY to enable")
	}

	// Build the playback controller. A missing or broken audio device
	// just means a text-only session.
	var player *audio.Controller
	if !*noAudio && ai != nil {
		cacheDir := ""
		if !*ephemeral {
			cacheDir = filepath.Join(*dataDir, "cache")
		}
		cache := audio.NewCache("Kore", cacheDir, *diskCache && !*ephemeral, log)

		p, err := audio.NewController(ai, log, audio.WithCache(cache))
		if err != nil {
			log.Error("audio device init failed, playback disabled: %v", err)
		} else {
			player = p
			defer player.Close()
			log.Info("speech playback enabled")
		}
	}

	ui := display.NewUI(func() display.Status {
		tone, _ := store.CurrentTone()
		st := display.Status{Tone: tone, RitualAvailable: store.RitualAvailable()}
		if player != nil {
			_, st.Speaking = player.Playing()
		}
		return st
	})

	app := &cliApp{
		store:   store,
		ai:      ai,
		player:  player,
		log:     log,
		ui:      ui,
		dataDir: *dataDir,
	}

	fmt.Println(display.RenderBanner())
	fmt.Println(display.BannerStyle.Render("  Type anything to begin, '/help' for commands, '/quit' to exit."))
	fmt.Println()

	// Run app logic in a background goroutine.
	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal — blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
}

type cliApp struct {
	store   *conversation.Store
	ai      *gemini.Client    // nil when no API key is configured
	player  *audio.Controller // nil when audio is disabled or unavailable
	log     *logger.Logger
	ui      *display.UI
	dataDir string
}

func (a *cliApp) run(ctx context.Context) {
	// Replay the last model message so a returning user sees where the
	// conversation left off.
	if msgs := a.store.Messages(); len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		if last.Role == domain.RoleModel {
			a.printModelMessage(last)
		}
	}

	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case input, ok = <-a.ui.InputChan():
			if !ok {
				return
			}
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			cmd, arg, _ := strings.Cut(input, " ")
			if !a.handleCommand(ctx, strings.ToLower(cmd), strings.TrimSpace(arg)) {
				return
			}
			continue
		}

		a.converse(ctx, input, false)
	}
}

// handleCommand dispatches a slash command. Returns false when the app
// should exit.
func (a *cliApp) handleCommand(ctx context.Context, cmd, arg string) bool {
	switch cmd {
	case "/help":
		a.showHelp()
	case "/quit", "/exit":
		a.ui.PrintAlly("Until the frequencies align again. Farewell.")
		return false
	case "/save":
		a.saveExchange()
	case "/ritual":
		a.dailyRitual(ctx)
	case "/play":
		a.playLast(ctx)
	case "/listen":
		a.listenJournal(ctx, arg)
	case "/journal":
		a.showJournal()
	case "/summary":
		a.journalSummary(ctx)
	case "/spark":
		a.memorySpark(ctx)
	case "/journey":
		a.journeySpark(ctx)
	case "/mandala":
		a.mandala(ctx)
	case "/search":
		if arg == "" {
			a.ui.PrintHint("Usage: /search <question>")
			return true
		}
		a.converse(ctx, arg, true)
	case "/write":
		a.write(arg)
	case "/tone":
		if tone, ok := a.store.CurrentTone(); ok {
			a.ui.PrintField("Tone", tone)
		} else {
			a.ui.PrintHint("No resonance tone yet.")
		}
	default:
		a.ui.PrintHint("Unknown command. Type '/help' for the list.")
	}
	return true
}

// converse sends one user turn to the backend and records both sides.
func (a *cliApp) converse(ctx context.Context, input string, useSearch bool) {
	if a.ai == nil {
		a.ui.PrintUrgent("The connection is dormant. Set GEMINI_API_KEY to converse.")
		return
	}

	history := a.store.Messages()
	a.store.Append(domain.Message{Role: domain.RoleUser, Content: input})

	a.ui.PrintHint("listening to the field...")

	text, sources, err := a.ai.Respond(ctx, input, history, a.store.Memory(), a.store.Writings(), useSearch)
	if err != nil {
		a.log.Error("respond: %v", err)
		a.ui.PrintUrgent("The field is silent. Try again.")
		return
	}

	msg := a.store.Append(domain.Message{
		Role:    domain.RoleModel,
		Content: text,
		Sources: sources,
	})
	a.printModelMessage(msg)
}

// printModelMessage renders a model reply: the labeled fields when the
// text is structured, the raw text otherwise.
func (a *cliApp) printModelMessage(msg domain.Message) {
	a.ui.Println("")

	if msg.IsRitual {
		r := protocol.ParseRitual(msg.Content)
		a.ui.PrintField("Intention", r.Intention)
		a.ui.PrintField("Visualization", r.Visualization)
		a.ui.PrintField("Resonance", r.Resonance)
		a.ui.Println("")
		return
	}

	p := protocol.ParseResponse(msg.Content)
	if p.HasTone {
		a.ui.PrintField("Tone", p.Tone)
	}
	if p.HasTheme && p.Theme != "" {
		a.ui.PrintField("Theme", p.Theme)
	}
	if p.Reflection != "" {
		a.ui.PrintAlly(p.Reflection)
	}
	if p.Action != "" {
		a.ui.PrintField("Action", p.Action)
	}
	for _, s := range msg.Sources {
		a.ui.PrintSource(s.Title, s.URI)
	}
	if p.Memory == protocol.Save {
		a.ui.PrintHint("The Ally suggests keeping this exchange — '/save' to remember it.")
	}
	if msg.MandalaThought != "" {
		a.ui.PrintHint("“" + msg.MandalaThought + "”")
	}
	a.ui.Println("")
}

func (a *cliApp) saveExchange() {
	user, model, ok := a.store.LastExchange()
	if !ok {
		a.ui.PrintHint("Nothing to save yet — share something first.")
		return
	}

	journaled := a.store.CommitToMemory(user, model)
	if a.player != nil {
		a.player.Chime(audio.ChimeSave)
	}
	if journaled {
		a.ui.PrintAlly("This moment now lives in memory, and in your evolution journal.")
	} else {
		a.ui.PrintAlly("This moment now lives in memory.")
	}
}

func (a *cliApp) dailyRitual(ctx context.Context) {
	if !a.store.RitualAvailable() {
		a.ui.PrintHint("Today's ritual is already complete. Return tomorrow.")
		return
	}
	if a.ai == nil {
		a.ui.PrintUrgent("The connection is dormant. Set GEMINI_API_KEY to receive a ritual.")
		return
	}

	a.ui.PrintHint("attuning to today's frequency...")
	text := a.ai.DailyRitual(ctx)

	msg := a.store.Append(domain.Message{
		Role:     domain.RoleModel,
		Content:  text,
		IsRitual: true,
	})
	a.store.MarkRitualUsed()

	if a.player != nil {
		a.player.Chime(audio.ChimeRitual)
	}
	a.printModelMessage(msg)

	if a.player != nil {
		ritual := protocol.ParseRitual(text)
		if err := a.player.Play(ctx, msg.ID, ritual.Speakable()); err != nil {
			a.log.Error("ritual playback: %v", err)
		}
	}
}

// playLast toggles spoken playback of the most recent model message.
func (a *cliApp) playLast(ctx context.Context) {
	if a.player == nil {
		a.ui.PrintHint("Audio is disabled.")
		return
	}

	msgs := a.store.Messages()
	var last *domain.Message
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleModel {
			last = &msgs[i]
			break
		}
	}
	if last == nil {
		a.ui.PrintHint("Nothing to play yet.")
		return
	}

	var speakable string
	if last.IsRitual {
		speakable = protocol.ParseRitual(last.Content).Speakable()
	} else {
		speakable = protocol.ParseResponse(last.Content).Speakable()
	}

	if err := a.player.Play(ctx, last.ID, speakable); err != nil {
		a.log.Error("playback: %v", err)
		a.ui.PrintUrgent("The voice could not form. Try again.")
	}
}

// listenJournal plays a guided reflection for journal entry n (1-based,
// as printed by /journal).
func (a *cliApp) listenJournal(ctx context.Context, arg string) {
	if a.player == nil {
		a.ui.PrintHint("Audio is disabled.")
		return
	}
	if a.ai == nil {
		a.ui.PrintUrgent("The connection is dormant. Set GEMINI_API_KEY to listen.")
		return
	}

	journal := a.store.Journal()
	if len(journal) == 0 {
		a.ui.PrintHint("Your journal is empty — '/save' a structured exchange first.")
		return
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(journal) {
		a.ui.PrintHint(fmt.Sprintf("Usage: /listen <1-%d> (see /journal)", len(journal)))
		return
	}
	entry := journal[n-1]

	a.ui.PrintHint("composing a guided reflection...")
	script := a.ai.GuidedReflection(ctx, entry)
	a.ui.PrintAlly(script)

	if err := a.player.Play(ctx, "guided-"+entry.ID, script); err != nil {
		a.log.Error("guided playback: %v", err)
		a.ui.PrintUrgent("The voice could not form. Try again.")
	}
}

func (a *cliApp) showJournal() {
	journal := a.store.Journal()
	if len(journal) == 0 {
		a.ui.PrintHint("Your journal is a blank page. '/save' a structured exchange to begin.")
		return
	}

	for i, e := range journal {
		a.ui.PrintField(fmt.Sprintf("%d · %s", i+1, e.Date), e.Tone)
		if e.Theme != "" {
			a.ui.PrintHint("theme: " + e.Theme)
		}
		a.ui.PrintAlly(e.Reflection)
		a.ui.PrintHint(e.Action)
		a.ui.Println("")
	}
	a.ui.PrintHint("'/listen <n>' to hear a guided reflection on an entry.")
}

func (a *cliApp) journalSummary(ctx context.Context) {
	if a.ai == nil {
		a.ui.PrintUrgent("The connection is dormant. Set GEMINI_API_KEY to reflect.")
		return
	}
	a.ui.PrintHint("reading the arc of your journey...")
	a.ui.PrintAlly(a.ai.JournalSummary(ctx, a.store.Journal()))
}

func (a *cliApp) memorySpark(ctx context.Context) {
	if a.ai == nil {
		a.ui.PrintUrgent("The connection is dormant. Set GEMINI_API_KEY for a spark.")
		return
	}
	a.ui.PrintHint("drawing from memory...")

	text := a.ai.MemorySpark(ctx, a.store.Memory())
	msg := a.store.Append(domain.Message{Role: domain.RoleModel, Content: text})
	a.printModelMessage(msg)
}

func (a *cliApp) journeySpark(ctx context.Context) {
	if a.ai == nil {
		a.ui.PrintUrgent("The connection is dormant. Set GEMINI_API_KEY for a question.")
		return
	}
	a.ui.PrintHint("synthesizing your journey...")

	text := a.ai.JourneySpark(ctx, a.store.Messages(), a.store.Journal())
	msg := a.store.Append(domain.Message{Role: domain.RoleModel, Content: text})
	a.printModelMessage(msg)
}

// mandala renders the last reflection as an image, written under the
// data directory since a terminal can't show it inline.
func (a *cliApp) mandala(ctx context.Context) {
	if a.ai == nil {
		a.ui.PrintUrgent("The connection is dormant. Set GEMINI_API_KEY to visualize.")
		return
	}

	_, model, ok := a.store.LastExchange()
	if !ok {
		a.ui.PrintHint("Nothing to visualize yet — share something first.")
		return
	}
	reflection := protocol.ParseResponse(model.Content).Reflection
	if reflection == "" {
		a.ui.PrintHint("The last reply carries no reflection to visualize.")
		return
	}

	a.ui.PrintHint("weaving the mandala...")
	a.store.BeginImage(model.ID)

	jpeg, thought, err := a.ai.Mandala(ctx, reflection)
	if err != nil {
		a.store.AbortImage(model.ID)
		a.log.Error("mandala: %v", err)
		a.ui.PrintUrgent("The mandala would not form. Try again.")
		return
	}

	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
	a.store.FinishImage(model.ID, dataURI, thought)

	dir := filepath.Join(a.dataDir, "mandalas")
	if err := os.MkdirAll(dir, 0o755); err == nil {
		path := filepath.Join(dir, model.ID+".jpg")
		if err := os.WriteFile(path, jpeg, 0o644); err != nil {
			a.log.Error("write mandala: %v", err)
		} else {
			a.ui.PrintField("Mandala", path)
		}
	}
	if thought != "" {
		a.ui.PrintAlly("“" + thought + "”")
	}
}

// write shows the free-form writings with no argument, or appends a
// line to them.
func (a *cliApp) write(arg string) {
	if arg == "" {
		w := a.store.Writings()
		if strings.TrimSpace(w) == "" {
			a.ui.PrintHint("No writings yet. '/write <text>' to add a line the Ally resonates with.")
			return
		}
		for _, line := range strings.Split(w, "\n") {
			a.ui.PrintAlly(line)
		}
		return
	}

	w := a.store.Writings()
	if w != "" {
		w += "\n"
	}
	a.store.SetWritings(w + arg)
	a.ui.PrintHint("Added to your writings.")
}

func (a *cliApp) showHelp() {
	a.ui.PrintField("Commands", "")
	a.ui.PrintAlly("  <anything>       Speak with the Ally")
	a.ui.PrintAlly("  /save            Keep the last exchange in memory (and journal)")
	a.ui.PrintAlly("  /ritual          Receive today's resonance ritual (once per day)")
	a.ui.PrintAlly("  /play            Toggle spoken playback of the last reply")
	a.ui.PrintAlly("  /listen <n>      Hear a guided reflection on journal entry n")
	a.ui.PrintAlly("  /journal         Show your evolution journal")
	a.ui.PrintAlly("  /summary         A reflection on your whole journal")
	a.ui.PrintAlly("  /spark           A conversation opener drawn from memory")
	a.ui.PrintAlly("  /journey         One deep question about your path")
	a.ui.PrintAlly("  /mandala         Render the last reflection as a mandala image")
	a.ui.PrintAlly("  /search <q>      Ask with web grounding")
	a.ui.PrintAlly("  /write [text]    Show or add to your writings")
	a.ui.PrintAlly("  /tone            Show the current resonance tone")
	a.ui.PrintAlly("  /quit            Leave the session")
}
