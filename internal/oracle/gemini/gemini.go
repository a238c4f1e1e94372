// Package gemini classifies transaction labels with the Gemini API. It is
// the oracle of last resort behind the rule table: slow, rate limited, and
// allowed to give up.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"copilote/internal/categorize"
	"copilote/internal/core"
	"copilote/internal/log"
)

const (
	// DefaultModel is the Gemini model used for classification.
	DefaultModel = "gemini-2.0-flash"

	// DefaultCooldown spaces out calls to stay under the free-tier rate
	// limit. Calls landing inside the window fail fast instead of queueing.
	DefaultCooldown = 31 * time.Second
)

// Client calls Gemini to classify a transaction label. It implements
// categorize.Oracle.
type Client struct {
	genai    *genai.Client
	model    string
	cooldown time.Duration
	logger   *log.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// Config holds Gemini client configuration
type Config struct {
	APIKey   string
	Model    string
	Cooldown time.Duration
}

// New creates a Gemini oracle client. The API key may be empty when the
// environment provides GEMINI_API_KEY; the genai SDK picks it up.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	}
	if cfg.APIKey != "" {
		cc.APIKey = cfg.APIKey
	}

	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	return &Client{
		genai:    gc,
		model:    model,
		cooldown: cooldown,
		logger:   logger.WithComponent(log.ComponentOracle),
	}, nil
}

// Model returns the model name the client queries.
func (c *Client) Model() string { return c.model }

// Classify asks the model for a cleaned label and a category. Inside the
// cooldown window it returns core.ErrOracleUnavailable without calling the
// API, so the caller can fall back to the review sentinel immediately.
func (c *Client) Classify(ctx context.Context, label string) (categorize.Result, error) {
	if err := c.reserveSlot(); err != nil {
		return categorize.Result{}, err
	}

	c.logger.InfoContext(ctx, "Calling Gemini for classification",
		log.FieldModel, c.model,
		log.FieldLabel, label,
		log.FieldOperation, log.OpClassify)

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(label)},
			},
		},
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return categorize.Result{}, fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return categorize.Result{}, fmt.Errorf("empty response from model")
	}

	return parseAnswer(raw, label)
}

// reserveSlot enforces the cooldown. It never blocks: the slot is either
// free now or the call is refused.
func (c *Client) reserveSlot() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if wait := c.cooldown - time.Since(c.lastCall); wait > 0 {
		return fmt.Errorf("cooldown for %s: %w", wait.Round(time.Second), core.ErrOracleUnavailable)
	}
	c.lastCall = time.Now()
	return nil
}

func buildPrompt(label string) string {
	cats := core.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	quoted, _ := json.Marshal(names)

	var b strings.Builder
	b.WriteString("Tu es un expert en finances personnelles.\n")
	fmt.Fprintf(&b, "Analyse la transaction : %q\n\n", label)
	b.WriteString("Tâches :\n")
	b.WriteString("1. Propose un \"libelle_nettoye\" clair (ex: \"Achat Fnac\").\n")
	fmt.Fprintf(&b, "2. Choisis la \"categorie\" la plus pertinente parmi cette liste : %s\n\n", quoted)
	b.WriteString("RÈGLES CRITIQUES :\n")
	fmt.Fprintf(&b, "- Si tu ne peux pas deviner, utilise la catégorie %q.\n", core.CategoryNeedsReview)
	b.WriteString("- Ta réponse DOIT commencer par { et finir par }.\n")
	b.WriteString("- Ne réponds RIEN d'autre. Pas de texte, pas de markdown.\n")
	b.WriteString("- SEULEMENT l'objet JSON.\n")
	return b.String()
}

// answer is the JSON object the prompt asks the model to emit.
type answer struct {
	CleanedLabel string `json:"libelle_nettoye"`
	Category     string `json:"categorie"`
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// parseAnswer extracts the JSON object from the model output, tolerating
// markdown fences and stray prose the prompt forbids but models still emit.
func parseAnswer(raw, label string) (categorize.Result, error) {
	match := jsonObjectRe.FindString(cleanModelJSON(raw))
	if match == "" {
		return categorize.Result{}, fmt.Errorf("no JSON object in model output")
	}

	var a answer
	if err := json.Unmarshal([]byte(match), &a); err != nil {
		return categorize.Result{}, fmt.Errorf("decoding model output: %w", err)
	}

	res := categorize.Result{
		Label:    a.CleanedLabel,
		Category: core.Category(a.Category),
	}
	if res.Label == "" {
		res.Label = label
	}
	// An out-of-list category counts as the model giving up.
	if !res.Category.IsValid() {
		res.Category = core.CategoryNeedsReview
	}
	return res, nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
