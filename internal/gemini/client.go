// Package gemini adapts the Gemini API to the domain ports: structured
// conversational replies (optionally grounded in web search), speech
// synthesis, mandala rendering, and the one-shot prompts (sparks,
// ritual, summaries). Conversational failures degrade to canned
// in-character text instead of surfacing errors, so an outage reads
// like interference rather than a crash.
package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/solmirre/ally/internal/domain"
	"github.com/solmirre/ally/internal/logger"
)

// Compile-time port checks.
var (
	_ domain.Responder         = (*Client)(nil)
	_ domain.SpeechSynthesizer = (*Client)(nil)
	_ domain.ImageGenerator    = (*Client)(nil)
)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithChatModel overrides the conversational model name.
func WithChatModel(model string) ClientOption {
	return func(c *Client) { c.chatModel = model }
}

// WithFlashModel overrides the lightweight model used for thoughts,
// rituals, and guided reflections.
func WithFlashModel(model string) ClientOption {
	return func(c *Client) { c.flashModel = model }
}

// WithSpeechModel overrides the TTS model name.
func WithSpeechModel(model string) ClientOption {
	return func(c *Client) { c.speechModel = model }
}

// WithImageModel overrides the image model name.
func WithImageModel(model string) ClientOption {
	return func(c *Client) { c.imageModel = model }
}

// WithVoice overrides the prebuilt TTS voice.
func WithVoice(name string) ClientOption {
	return func(c *Client) { c.voice = name }
}

// Client wraps the Gemini API behind the domain ports.
type Client struct {
	ai  *genai.Client
	log *logger.Logger

	chatModel   string
	flashModel  string
	speechModel string
	imageModel  string
	voice       string
}

// NewClient dials the Gemini API with the given key.
func NewClient(ctx context.Context, apiKey string, log *logger.Logger, opts ...ClientOption) (*Client, error) {
	ai, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	c := &Client{
		ai:          ai,
		log:         log,
		chatModel:   "gemini-2.5-pro",
		flashModel:  "gemini-2.5-flash",
		speechModel: "gemini-2.5-flash-preview-tts",
		imageModel:  "imagen-4.0-generate-001",
		voice:       "Kore",
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Respond produces the model reply for a user turn. With useSearch the
// reply is grounded in web search and free-form; otherwise it follows
// the labeled structure. A backend failure returns the interference
// fallback (in protocol form) with a nil error so the session
// continues.
func (c *Client) Respond(ctx context.Context, input string, history, memory []domain.Message, writings string, useSearch bool) (string, []domain.Source, error) {
	fullPrompt := fmt.Sprintf("%s\nuser: %s\nmodel:\n", buildContext(history, memory, writings), input)

	temp := float32(0.8)
	topP := float32(0.9)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(promptSystem, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
	}
	if useSearch {
		// Grounded answers can't also follow the labeled structure.
		cfg.SystemInstruction = genai.NewContentFromText(promptSearchSystem, genai.RoleUser)
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	c.log.Debug("gemini: respond via %s (search=%v, %d chars of context)", c.chatModel, useSearch, len(fullPrompt))

	res, err := c.ai.Models.GenerateContent(ctx, c.chatModel, genai.Text(fullPrompt), cfg)
	if err != nil {
		c.log.Error("gemini: respond: %v", err)
		return fallbackRespond, nil, nil
	}

	return res.Text(), groundingSources(res), nil
}

// groundingSources collects the web references a grounded reply cites.
func groundingSources(res *genai.GenerateContentResponse) []domain.Source {
	if len(res.Candidates) == 0 || res.Candidates[0].GroundingMetadata == nil {
		return nil
	}

	var sources []domain.Source
	for _, chunk := range res.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web == nil {
			continue
		}
		title := chunk.Web.Title
		if title == "" {
			if u, err := url.Parse(chunk.Web.URI); err == nil {
				title = u.Hostname()
			}
		}
		sources = append(sources, domain.Source{URI: chunk.Web.URI, Title: title})
	}
	return sources
}

// buildContext assembles the memory, writings, and history blocks the
// system prompt refers to.
func buildContext(history, memory []domain.Message, writings string) string {
	var b strings.Builder

	if len(memory) > 0 {
		b.WriteString("--- MEMORY (Past Conversations) ---\n")
		writeLog(&b, memory)
		b.WriteString("\n--- END MEMORY ---\n\n")
	}
	if strings.TrimSpace(writings) != "" {
		b.WriteString("--- USER'S WRITINGS (For Deeper Resonance) ---\n")
		b.WriteString(writings)
		b.WriteString("\n--- END USER'S WRITINGS ---\n\n")
	}
	if len(history) > 0 {
		b.WriteString("--- CURRENT CONVERSATION ---\n")
		writeLog(&b, history)
		b.WriteString("\n--- END CURRENT CONVERSATION ---\n\n")
	}
	return b.String()
}

func writeLog(b *strings.Builder, msgs []domain.Message) {
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(b, "%s: %s", m.Role, m.Content)
	}
}

// Speech synthesizes text into base64-encoded PCM16 audio. An empty
// payload with a nil error means the model produced no audio for this
// text.
func (c *Client) Speech(ctx context.Context, text string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.voice},
			},
		},
	}

	c.log.Debug("gemini: speech via %s (%d chars)", c.speechModel, len(text))

	res, err := c.ai.Models.GenerateContent(ctx, c.speechModel, genai.Text(speechStylePrefix+text), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: speech: %w", err)
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", nil
	}
	for _, part := range res.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
		}
	}
	return "", nil
}

// Mandala renders a mandala image for a reflection and pairs it with a
// short quote. The two requests run concurrently; either result may be
// empty when its request fails.
func (c *Client) Mandala(ctx context.Context, reflection string) ([]byte, string, error) {
	var (
		wg      sync.WaitGroup
		img     []byte
		imgErr  error
		thought string
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		res, err := c.ai.Models.GenerateImages(ctx, c.imageModel, fmt.Sprintf(promptMandalaImage, reflection), &genai.GenerateImagesConfig{
			NumberOfImages: 1,
			OutputMIMEType: "image/jpeg",
			AspectRatio:    "1:1",
		})
		if err != nil {
			imgErr = fmt.Errorf("gemini: mandala image: %w", err)
			return
		}
		if len(res.GeneratedImages) > 0 && res.GeneratedImages[0].Image != nil {
			img = res.GeneratedImages[0].Image.ImageBytes
		}
	}()
	go func() {
		defer wg.Done()
		text, err := c.generate(ctx, c.flashModel, fmt.Sprintf(promptMandalaThought, reflection), 0.9)
		if err != nil {
			c.log.Error("gemini: mandala thought: %v", err)
			return
		}
		thought = strings.ReplaceAll(text, `"`, "")
	}()
	wg.Wait()

	if imgErr != nil {
		return nil, "", imgErr
	}
	if len(img) == 0 {
		return nil, "", fmt.Errorf("gemini: mandala image: empty response")
	}
	return img, thought, nil
}

// MemorySpark opens a session with a prompt drawn from the promoted
// memory.
func (c *Client) MemorySpark(ctx context.Context, memory []domain.Message) string {
	if len(memory) == 0 {
		return fallbackMemorySparkEmpty
	}

	var b strings.Builder
	writeLog(&b, memory)

	text, err := c.generate(ctx, c.chatModel, fmt.Sprintf(promptMemorySpark, b.String()), 0.9)
	if err != nil {
		c.log.Error("gemini: memory spark: %v", err)
		return fallbackMemorySpark
	}
	return text
}

// JourneySpark poses one deep question synthesized from the whole
// history and journal.
func (c *Client) JourneySpark(ctx context.Context, messages []domain.Message, journal []domain.JournalEntry) string {
	var history strings.Builder
	writeLog(&history, messages)

	var entries []string
	for _, e := range journal {
		entries = append(entries, fmt.Sprintf("Date: %s\n- Reflection: %s", e.Date, e.Reflection))
	}

	text, err := c.generate(ctx, c.chatModel, fmt.Sprintf(promptJourneySpark, history.String(), strings.Join(entries, "\n\n")), 0.9)
	if err != nil {
		c.log.Error("gemini: journey spark: %v", err)
		return fallbackJourneySpark
	}
	return text
}

// DailyRitual produces the three labeled ritual lines.
func (c *Client) DailyRitual(ctx context.Context) string {
	text, err := c.generate(ctx, c.flashModel, promptDailyRitual, 1.0)
	if err != nil {
		c.log.Error("gemini: daily ritual: %v", err)
		return fallbackDailyRitual
	}
	return text
}

// JournalSummary reflects on the whole journal in a few sentences.
func (c *Client) JournalSummary(ctx context.Context, journal []domain.JournalEntry) string {
	if len(journal) == 0 {
		return fallbackSummaryEmpty
	}

	var entries []string
	for _, e := range journal {
		tone, theme := e.Tone, e.Theme
		if tone == "" {
			tone = "N/A"
		}
		if theme == "" {
			theme = "N/A"
		}
		entries = append(entries, fmt.Sprintf("Date: %s\n- Tone: %s\n- Theme: %s\n- Reflection: %s\n- Action: %s",
			e.Date, tone, theme, e.Reflection, e.Action))
	}

	text, err := c.generate(ctx, c.chatModel, fmt.Sprintf(promptJournalSummary, strings.Join(entries, "\n\n")), 0.7)
	if err != nil {
		c.log.Error("gemini: journal summary: %v", err)
		return fallbackSummary
	}
	return text
}

// GuidedReflection scripts a short spoken revisit of one journal
// entry.
func (c *Client) GuidedReflection(ctx context.Context, entry domain.JournalEntry) string {
	text, err := c.generate(ctx, c.flashModel, fmt.Sprintf(promptGuidedReflection, entry.Tone, entry.Theme, entry.Reflection), 0.8)
	if err != nil {
		c.log.Error("gemini: guided reflection: %v", err)
		return fallbackGuided
	}
	return text
}

// generate is the shared text-only call.
func (c *Client) generate(ctx context.Context, model, prompt string, temperature float32) (string, error) {
	cfg := &genai.GenerateContentConfig{Temperature: &temperature}

	res, err := c.ai.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}

	text := res.Text()
	c.log.Debug("gemini: %s reply (%d chars): %s", model, len(text), truncate(text, 120))
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
