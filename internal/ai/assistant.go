// Package ai wraps a hosted chat model for invoice descriptions and expense
// categorization. Every failure degrades to a static answer; callers never
// see an error.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"invoicer/internal/cache"
	"invoicer/internal/core"
	applog "invoicer/internal/log"
)

// DescriptionRequest carries what the model needs to describe an invoice.
type DescriptionRequest struct {
	ClientName string
	Amount     decimal.Decimal
	Services   []string
}

// Assistant answers AI-assisted requests. A nil completer disables the model
// and every call returns its fallback.
type Assistant struct {
	completer Completer
	taxonomy  core.Taxonomy
	cache     *cache.LRUCache[core.Categorization]
	group     singleflight.Group
	timeout   time.Duration
	logger    *applog.Logger
}

type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	Timeout   time.Duration
}

func NewAssistant(c Completer, taxonomy core.Taxonomy, opts Options, logger *applog.Logger) *Assistant {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 500
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Assistant{
		completer: c,
		taxonomy:  taxonomy,
		cache:     cache.NewLRUCache[core.Categorization](opts.CacheSize, opts.CacheTTL),
		timeout:   opts.Timeout,
		logger:    logger.WithComponent(applog.ComponentAI),
	}
}

// Taxonomy returns the categories the assistant classifies into.
func (a *Assistant) Taxonomy() core.Taxonomy {
	return a.taxonomy
}

// Cache exposes the categorization cache for periodic cleanup.
func (a *Assistant) Cache() cache.Cleaner {
	return a.cache
}

// FallbackDescription is used whenever the model cannot produce one.
func FallbackDescription(clientName string) string {
	return "Professional services provided to " + clientName
}

const descriptionSystemPrompt = "Generate a clear, professional invoice description based on the client name, amount, and any services provided. Keep it concise but detailed."

func (a *Assistant) GenerateInvoiceDescription(ctx context.Context, req DescriptionRequest) string {
	fallback := FallbackDescription(req.ClientName)
	if a.completer == nil {
		return fallback
	}

	prompt := fmt.Sprintf("Generate an invoice description for client %q for amount $%s", req.ClientName, req.Amount.StringFixed(2))
	if len(req.Services) > 0 {
		prompt += " for services: " + strings.Join(req.Services, ", ")
	}
	prompt += "."

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := a.completer.Complete(ctx, CompletionRequest{System: descriptionSystemPrompt, User: prompt})
	if err != nil {
		a.logger.WarnContext(ctx, "Description generation failed, using fallback",
			applog.FieldError, err,
			applog.FieldClientName, req.ClientName)
		return fallback
	}
	return out
}

type categorizationReply struct {
	MainCategory string  `json:"mainCategory"`
	SubCategory  string  `json:"subCategory"`
	Confidence   float64 `json:"confidence"`
	Explanation  string  `json:"explanation"`
}

// CategorizeExpense classifies a description into the taxonomy. Identical
// descriptions share one in-flight request and a cached answer.
func (a *Assistant) CategorizeExpense(ctx context.Context, description string) core.Categorization {
	key := strings.ToLower(strings.Join(strings.Fields(description), " "))
	if key == "" {
		return core.FallbackCategorization("empty description")
	}
	if a.completer == nil {
		return core.FallbackCategorization("automatic categorization is disabled")
	}
	if c, ok := a.cache.Get(key); ok {
		a.logger.DebugContext(ctx, "Categorization cache hit", applog.FieldExpenseDesc, description)
		return c
	}

	v, _, _ := a.group.Do(key, func() (interface{}, error) {
		c, err := a.categorize(ctx, description)
		if err != nil {
			a.logger.WarnContext(ctx, "Categorization failed, using fallback",
				applog.FieldError, err,
				applog.FieldExpenseDesc, description)
			return core.FallbackCategorization("categorization unavailable"), nil
		}
		a.cache.Set(key, c)
		return c, nil
	})
	return v.(core.Categorization)
}

func (a *Assistant) categorize(ctx context.Context, description string) (core.Categorization, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := a.completer.Complete(ctx, CompletionRequest{
		System: a.categorySystemPrompt(),
		User:   description,
		JSON:   true,
	})
	if err != nil {
		return core.Categorization{}, err
	}

	var reply categorizationReply
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(out)), &reply); err != nil {
		return core.Categorization{}, fmt.Errorf("parse categorization: %w", err)
	}

	return a.taxonomy.Resolve(core.Categorization{
		MainCategory: reply.MainCategory,
		SubCategory:  reply.SubCategory,
		Confidence:   reply.Confidence,
		Explanation:  reply.Explanation,
	}), nil
}

func (a *Assistant) categorySystemPrompt() string {
	var b strings.Builder
	b.WriteString("Categorize the business expense into exactly one of these categories and, when one fits, one of its subcategories:\n")
	for _, c := range a.taxonomy.Categories {
		b.WriteString("- " + c.Name)
		if len(c.Subcategories) > 0 {
			b.WriteString(" (" + strings.Join(c.Subcategories, ", ") + ")")
		}
		b.WriteString("\n")
	}
	b.WriteString(`Respond with a JSON object: {"mainCategory": string, "subCategory": string, "confidence": number between 0 and 1, "explanation": string}.`)
	return b.String()
}
