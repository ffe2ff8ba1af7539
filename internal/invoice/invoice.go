package invoice

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"askdocs/internal/cache"
	"askdocs/internal/rag"
)

type Category string

const (
	Groceries      Category = "Groceries"
	Entertainment  Category = "Entertainment"
	Restaurants    Category = "Restaurants"
	Transportation Category = "Transportation"
	Other          Category = "Other"
)

var Categories = []Category{Groceries, Entertainment, Restaurants, Transportation, Other}

type Transaction struct {
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Amount      float64  `json:"amount"`
}

type Extraction struct {
	Transactions []Transaction `json:"transactions"`
}

const transactionSchema = `{
  "type": "object",
  "required": ["transactions"],
  "properties": {
    "transactions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["date", "description", "category", "amount"],
        "properties": {
          "date": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
          "description": {"type": "string"},
          "category": {"enum": ["Groceries", "Entertainment", "Restaurants", "Transportation", "Other"]},
          "amount": {"type": "number"}
        }
      }
    }
  }
}`

const categorizationQuery = `Analyze this card invoice and categorize transactions into exactly 5 categories:
- Groceries
- Entertainment
- Restaurants
- Transportation
- Other

Return ONLY a JSON object in a ` + "```json" + ` block with a "transactions" array whose items have:
- date (YYYY-MM-DD)
- description (string, item name)
- category (string, matching above list)
- amount (float)

Example:
{
    "transactions": [
        {
            "date": "2025-02-15",
            "description": "Hemköp",
            "category": "Groceries",
            "amount": 23.45
        }
    ]
}`

// Extractor turns invoice text into categorized transactions.
type Extractor struct {
	embedder rag.Embedder
	gen      rag.Generator
	memo     cache.Memo
	schema   *jsonschema.Schema
	chunking rag.ChunkerConfig
	topK     int
	memoTag  string
}

type ExtractorOption func(*Extractor)

// WithMemo caches extractions under tag (typically the model names).
func WithMemo(memo cache.Memo, tag string) ExtractorOption {
	return func(e *Extractor) {
		e.memo = memo
		e.memoTag = tag
	}
}

func WithChunking(cfg rag.ChunkerConfig) ExtractorOption {
	return func(e *Extractor) { e.chunking = cfg }
}

func NewExtractor(embedder rag.Embedder, gen rag.Generator, opts ...ExtractorOption) (*Extractor, error) {
	schema, err := rag.CompileSchema("invoice-transactions.json", transactionSchema)
	if err != nil {
		return nil, err
	}
	e := &Extractor{
		embedder: embedder,
		gen:      gen,
		schema:   schema,
		chunking: rag.ChunkerConfig{MaxLength: 2000, Overlap: 200},
		topK:     rag.DefaultTopK,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract indexes the invoice text and asks for its transactions as JSON.
// Output that does not match the schema fails with ErrMalformedResponse.
func (e *Extractor) Extract(ctx context.Context, text string) ([]Transaction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("invoice text is empty: %w", rag.ErrInvalidInput)
	}
	key := cache.Key("invoice", e.memoTag, text)
	if e.memo != nil {
		var cached Extraction
		ok, err := e.memo.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("invoice memo get failed: %v", err)
		} else if ok {
			return cached.Transactions, nil
		}
	}

	segments, err := rag.Chunk(text, e.chunking)
	if err != nil {
		return nil, err
	}
	index := rag.NewIndex(e.embedder, nil)
	if err := index.Build(ctx, segments); err != nil {
		return nil, err
	}
	pipeline := rag.NewPipeline(index, rag.NewSynthesizer(e.gen), e.topK)

	var out Extraction
	if _, err := pipeline.AskJSON(ctx, categorizationQuery, e.schema, &out); err != nil {
		return nil, err
	}
	for i := range out.Transactions {
		if _, err := time.Parse(time.DateOnly, out.Transactions[i].Date); err != nil {
			return nil, fmt.Errorf("transaction %d has date %q: %w", i, out.Transactions[i].Date, rag.ErrMalformedResponse)
		}
		out.Transactions[i].Description = strings.TrimSpace(out.Transactions[i].Description)
	}

	if e.memo != nil {
		if err := e.memo.Set(ctx, key, out); err != nil {
			log.Printf("invoice memo set failed: %v", err)
		}
	}
	return out.Transactions, nil
}
