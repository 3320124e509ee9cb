package knowledge

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/textutil"
)

const (
	DefaultMaxRows      = 20
	DefaultMaxItemChars = 2000
)

// TrainingSource lists an agent's training rows, newest first.
type TrainingSource interface {
	ListByAgent(ctx context.Context, agentID string, limit int) ([]*models.TrainingDatum, error)
}

// Assembler renders an agent's training data into a bounded prompt section.
type Assembler struct {
	source       TrainingSource
	maxRows      int
	maxItemChars int
	logger       *zap.Logger
}

func NewAssembler(source TrainingSource, maxRows int, logger *zap.Logger) *Assembler {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Assembler{
		source:       source,
		maxRows:      maxRows,
		maxItemChars: DefaultMaxItemChars,
		logger:       logger,
	}
}

// Build returns the knowledge base text for agentID, or "" when the agent
// has no usable training data. Storage errors are logged, never returned.
func (a *Assembler) Build(ctx context.Context, agentID string) string {
	if agentID == "" {
		return ""
	}

	rows, err := a.source.ListByAgent(ctx, agentID, a.maxRows)
	if err != nil {
		a.logger.Error("Failed to load training data", zap.String("agent_id", agentID), zap.Error(err))
		return ""
	}
	if len(rows) > a.maxRows {
		rows = rows[:a.maxRows]
	}
	return Render(rows, a.maxItemChars)
}

// Render formats rows in the given order. Crawled content longer than
// maxItemChars is cut at that many characters.
func Render(rows []*models.TrainingDatum, maxItemChars int) string {
	var faq, pages []string
	for _, row := range rows {
		switch row.Type {
		case models.TrainingQAPair:
			if row.Question != "" && row.Answer != "" {
				faq = append(faq, fmt.Sprintf("Q: %s\nA: %s", row.Question, row.Answer))
			}
		case models.TrainingWebsiteCrawl:
			if row.Content == "" {
				continue
			}
			source := row.Title
			if source == "" {
				source = row.SourceURL
			}
			pages = append(pages, fmt.Sprintf("[Source: %s]\n%s", source, textutil.Truncate(row.Content, maxItemChars)))
		}
	}

	if len(faq) == 0 && len(pages) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\n## Knowledge Base\nUse the following information to answer questions accurately:\n\n")
	if len(faq) > 0 {
		sb.WriteString("### FAQ:\n")
		sb.WriteString(strings.Join(faq, "\n\n"))
		sb.WriteString("\n\n")
	}
	if len(pages) > 0 {
		sb.WriteString("### Website Content:\n")
		sb.WriteString(strings.Join(pages, "\n\n---\n\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}
