package models

import "time"

type TrainingType string

const (
	TrainingQAPair       TrainingType = "qa_pair"
	TrainingWebsiteCrawl TrainingType = "website_crawl"
)

type TrainingStatus string

const (
	TrainingActive     TrainingStatus = "active"
	TrainingProcessing TrainingStatus = "processing"
	TrainingError      TrainingStatus = "error"
)

// TrainingDatum is one knowledge unit: a Q&A pair or one crawled page.
type TrainingDatum struct {
	ID         string         `db:"id" json:"id"`
	BusinessID string         `db:"business_id" json:"business_id"`
	AgentID    *string        `db:"agent_id" json:"agent_id,omitempty"`
	Type       TrainingType   `db:"type" json:"type"`
	Question   string         `db:"question" json:"question,omitempty"`
	Answer     string         `db:"answer" json:"answer,omitempty"`
	Title      string         `db:"title" json:"title,omitempty"`
	SourceURL  string         `db:"source_url" json:"source_url,omitempty"`
	Content    string         `db:"content" json:"content,omitempty"`
	Status     TrainingStatus `db:"status" json:"status"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

type CreateQARequest struct {
	AgentID  *string `json:"agent_id"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
}

type CrawlRequest struct {
	URL string `json:"url"`
}

type BatchCrawlRequest struct {
	URLs []string `json:"urls"`
}

// CrawlResult is the response of a single crawl ingestion.
type CrawlResult struct {
	TrainingData  *TrainingDatum `json:"training_data"`
	ContentLength int            `json:"content_length"`
	Preview       string         `json:"preview"`
}
