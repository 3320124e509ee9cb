package knowledge_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/knowledge"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
)

// fakeSource mimics the repository: rows are stored oldest first and served newest first.
type fakeSource struct {
	rows []*models.TrainingDatum
	err  error
}

func (f *fakeSource) ListByAgent(_ context.Context, _ string, limit int) ([]*models.TrainingDatum, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.TrainingDatum, 0, len(f.rows))
	for i := len(f.rows) - 1; i >= 0; i-- {
		out = append(out, f.rows[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func qa(q, a string) *models.TrainingDatum {
	return &models.TrainingDatum{Type: models.TrainingQAPair, Question: q, Answer: a}
}

func page(title, url, content string) *models.TrainingDatum {
	return &models.TrainingDatum{Type: models.TrainingWebsiteCrawl, Title: title, SourceURL: url, Content: content}
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()

	a := knowledge.NewAssembler(&fakeSource{}, 0, zap.NewNop())
	assert.Equal(t, "", a.Build(context.Background(), "agent-1"))

	// Rows that carry nothing renderable do not produce a heading.
	a = knowledge.NewAssembler(&fakeSource{rows: []*models.TrainingDatum{
		qa("only a question", ""),
		page("Empty", "https://example.com", ""),
	}}, 0, zap.NewNop())
	assert.Equal(t, "", a.Build(context.Background(), "agent-1"))
}

func TestBuildSwallowsStorageErrors(t *testing.T) {
	t.Parallel()

	a := knowledge.NewAssembler(&fakeSource{err: errors.New("db down")}, 0, zap.NewNop())
	assert.Equal(t, "", a.Build(context.Background(), "agent-1"))
}

func TestBuildFormatsSections(t *testing.T) {
	t.Parallel()

	a := knowledge.NewAssembler(&fakeSource{rows: []*models.TrainingDatum{
		page("", "https://example.com/about", "We fix pipes."),
		qa("Hours?", "9-5"),
		qa("Parking?", "Street only"),
	}}, 0, zap.NewNop())

	want := "\n\n## Knowledge Base\nUse the following information to answer questions accurately:\n\n" +
		"### FAQ:\nQ: Parking?\nA: Street only\n\nQ: Hours?\nA: 9-5\n\n" +
		"### Website Content:\n[Source: https://example.com/about]\nWe fix pipes.\n"
	assert.Equal(t, want, a.Build(context.Background(), "agent-1"))
}

func TestBuildIsBounded(t *testing.T) {
	t.Parallel()

	var rows []*models.TrainingDatum
	for i := 0; i < 3; i++ {
		rows = append(rows, page(fmt.Sprintf("Page %d", i), "", strings.Repeat("x", 5000)))
	}
	for i := 0; i < 25; i++ {
		rows = append(rows, qa(fmt.Sprintf("question %02d", i), "answer"))
	}

	out := knowledge.NewAssembler(&fakeSource{rows: rows}, 0, zap.NewNop()).Build(context.Background(), "agent-1")

	// The 20 newest rows are all Q&A, so the older crawls fall outside the cap.
	assert.Equal(t, 20, strings.Count(out, "Q: "))
	assert.NotContains(t, out, "question 04")
	assert.Contains(t, out, "question 05")
	assert.NotContains(t, out, "Website Content")
}

func TestRenderTruncatesCrawlContent(t *testing.T) {
	t.Parallel()

	out := knowledge.Render([]*models.TrainingDatum{
		page("Long", "", strings.Repeat("y", 5000)),
	}, knowledge.DefaultMaxItemChars)

	assert.Equal(t, knowledge.DefaultMaxItemChars, strings.Count(out, "y"))
	assert.Contains(t, out, "[Source: Long]")
}
