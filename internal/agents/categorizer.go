package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finsphere/internal/core"
	"finsphere/internal/rules"
	"finsphere/internal/storage"
)

// Categorizer assigns a category to recent uncategorized transactions by
// keyword match. Existing categories are never overwritten.
type Categorizer struct {
	rules      []rules.CategoryRule
	thresholds rules.Thresholds
	now        Clock
}

func NewCategorizer(r rules.Rules, now Clock) *Categorizer {
	return &Categorizer{rules: r.Categories, thresholds: r.Thresholds, now: orNow(now)}
}

func (c *Categorizer) Name() string { return NameCategorizer }

// Categorize returns the category for tx: the first rule (in table order)
// with a keyword contained in the lower-cased description or merchant, or a
// fallback chosen by amount and type.
func (c *Categorizer) Categorize(tx core.Transaction) string {
	text := strings.ToLower(tx.Description + " " + tx.Merchant)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				return rule.Name
			}
		}
	}

	switch {
	case tx.Amount.GreaterThan(c.thresholds.MajorExpense):
		return rules.CategoryMajorExpense
	case tx.Type == core.Income:
		return rules.CategoryRevenue
	default:
		return rules.CategoryMiscellaneous
	}
}

func (c *Categorizer) Execute(ctx context.Context, store storage.TransactionStore) ([]core.AgentAction, error) {
	txs, err := store.Query(ctx, c.thresholds.CategorizeWindowDays)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	now := c.now()
	var actions []core.AgentAction
	for _, tx := range txs {
		if tx.HasCategory() {
			continue
		}

		tx.Category = c.Categorize(tx)
		if err := store.Upsert(ctx, tx); err != nil {
			return nil, fmt.Errorf("save category for transaction %s: %w", tx.ID, err)
		}

		slog.DebugContext(ctx, "Categorized transaction",
			"transaction_id", tx.ID,
			"category", tx.Category)

		actions = append(actions, core.NewAction(
			"cat_"+tx.ID,
			NameCategorizer,
			core.ActionCategorize,
			map[string]any{
				"transactionId": tx.ID,
				"category":      tx.Category,
				"confidence":    c.thresholds.CategorizeConfidence,
			},
			false,
			c.thresholds.CategorizeConfidence,
			now,
		))
	}
	return actions, nil
}
