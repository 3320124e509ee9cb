package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/batch"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/crawler"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/repository"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/textutil"
)

const PreviewChars = 500

// CrawlEvent is one step of a streamed batch crawl.
type CrawlEvent = batch.Event[string, *models.CrawlResult]

// PageCrawler is satisfied by *crawler.Crawler.
type PageCrawler interface {
	Crawl(ctx context.Context, pageURL string) (*crawler.Page, error)
}

type TrainingService interface {
	ListForBusiness(ctx context.Context, callerID, businessID string) ([]*models.TrainingDatum, error)
	ListForAgent(ctx context.Context, businessID, agentID string) ([]*models.TrainingDatum, error)
	AddQA(ctx context.Context, businessID string, req models.CreateQARequest) (*models.TrainingDatum, error)
	Crawl(ctx context.Context, businessID, agentID, pageURL string) (*models.CrawlResult, error)
	// BatchCrawl checks ownership up front, then crawls urls one by one and
	// reports progress on the returned channel.
	BatchCrawl(ctx context.Context, businessID, agentID string, urls []string) (<-chan CrawlEvent, error)
	Delete(ctx context.Context, businessID, id string) error
}

type trainingService struct {
	store      *repository.Store
	crawler    PageCrawler
	streamOpts batch.Options
	logger     *zap.Logger
}

func NewTrainingService(store *repository.Store, pc PageCrawler, streamOpts batch.Options, logger *zap.Logger) TrainingService {
	if streamOpts.Logger == nil {
		streamOpts.Logger = logger
	}
	return &trainingService{store: store, crawler: pc, streamOpts: streamOpts, logger: logger}
}

func (s *trainingService) ListForBusiness(ctx context.Context, callerID, businessID string) ([]*models.TrainingDatum, error) {
	if err := owned(callerID, businessID, "business"); err != nil {
		return nil, err
	}
	return s.store.Training.ListByBusiness(ctx, businessID)
}

func (s *trainingService) ListForAgent(ctx context.Context, businessID, agentID string) ([]*models.TrainingDatum, error) {
	if _, err := s.ownedAgent(ctx, businessID, agentID); err != nil {
		return nil, err
	}
	return s.store.Training.ListByAgent(ctx, agentID, 0)
}

func (s *trainingService) AddQA(ctx context.Context, businessID string, req models.CreateQARequest) (*models.TrainingDatum, error) {
	question := strings.TrimSpace(req.Question)
	answer := strings.TrimSpace(req.Answer)
	if question == "" || answer == "" {
		return nil, apperr.Validation("question and answer are required")
	}
	if req.AgentID != nil {
		if _, err := s.ownedAgent(ctx, businessID, *req.AgentID); err != nil {
			return nil, err
		}
	}

	datum := &models.TrainingDatum{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		AgentID:    req.AgentID,
		Type:       models.TrainingQAPair,
		Question:   question,
		Answer:     answer,
		Status:     models.TrainingActive,
	}
	if err := s.store.Training.Create(ctx, datum); err != nil {
		s.logger.Error("Failed to add Q&A pair", zap.String("business_id", businessID), zap.Error(err))
		return nil, err
	}
	return datum, nil
}

func (s *trainingService) Crawl(ctx context.Context, businessID, agentID, pageURL string) (*models.CrawlResult, error) {
	agent, err := s.ownedAgent(ctx, businessID, agentID)
	if err != nil {
		return nil, err
	}
	return s.crawlFor(ctx, agent, pageURL)
}

func (s *trainingService) crawlFor(ctx context.Context, agent *models.Agent, pageURL string) (*models.CrawlResult, error) {
	page, err := s.crawler.Crawl(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	agentID := agent.ID
	datum := &models.TrainingDatum{
		ID:         uuid.NewString(),
		BusinessID: agent.BusinessID,
		AgentID:    &agentID,
		Type:       models.TrainingWebsiteCrawl,
		Title:      page.Title,
		SourceURL:  page.URL,
		Content:    page.Text,
		Status:     models.TrainingActive,
	}
	if err := s.store.Training.Create(ctx, datum); err != nil {
		s.logger.Error("Failed to store crawled page", zap.String("url", pageURL), zap.Error(err))
		return nil, err
	}

	return &models.CrawlResult{
		TrainingData:  datum,
		ContentLength: textutil.Len(page.Text),
		Preview:       textutil.Truncate(page.Text, PreviewChars),
	}, nil
}

func (s *trainingService) BatchCrawl(ctx context.Context, businessID, agentID string, urls []string) (<-chan CrawlEvent, error) {
	if len(urls) == 0 {
		return nil, apperr.Validation("urls are required")
	}
	agent, err := s.ownedAgent(ctx, businessID, agentID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Starting batch crawl", zap.String("agent_id", agentID), zap.Int("total", len(urls)))
	return batch.Stream(ctx, urls, func(ctx context.Context, _ int, pageURL string) (*models.CrawlResult, error) {
		result, err := s.crawlFor(ctx, agent, pageURL)
		if errors.Is(err, apperr.ErrValidation) {
			return nil, batch.Permanent(err)
		}
		return result, err
	}, s.streamOpts), nil
}

func (s *trainingService) Delete(ctx context.Context, businessID, id string) error {
	datum, err := s.store.Training.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := owned(businessID, datum.BusinessID, "training data"); err != nil {
		return err
	}
	return s.store.Training.Delete(ctx, id)
}

func (s *trainingService) ownedAgent(ctx context.Context, businessID, agentID string) (*models.Agent, error) {
	agent, err := s.store.Agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if err := owned(businessID, agent.BusinessID, "agent"); err != nil {
		return nil, err
	}
	return agent, nil
}
