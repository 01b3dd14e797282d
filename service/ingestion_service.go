package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"fundsight-backend/embedding"
	"fundsight-backend/models"
	"fundsight-backend/parser"
	"fundsight-backend/storage"

	"github.com/google/uuid"
)

// DocumentStore persists documents and applies compare-and-set status
// transitions.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.DocumentStatus, errorMessage *string) (bool, error)
}

// TransactionStore persists extracted transactions.
type TransactionStore interface {
	CreateBatch(ctx context.Context, txs []models.Transaction) error
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) error
}

// ChunkStore persists embedded chunks with idempotent replacement.
type ChunkStore interface {
	ReplaceForDocument(ctx context.Context, documentID uuid.UUID, chunks []models.Chunk) error
}

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrStorageNotSet    = errors.New("storage not set")
)

// IngestionService turns uploaded fund report documents into
// transactions and embedded chunks. Ingest returns immediately;
// extraction runs in the background and terminal status is observed
// by polling Status.
type IngestionService struct {
	docStore    DocumentStore
	txStore     TransactionStore
	chunkStore  ChunkStore
	fileStorage storage.Storage
	embedder    embedding.Embedder
	chunker     *parser.Chunker
}

// IngestionServiceOption is a functional option for IngestionService
type IngestionServiceOption func(*IngestionService)

// IngestionWithDocumentStore sets the document store
func IngestionWithDocumentStore(s DocumentStore) IngestionServiceOption {
	return func(svc *IngestionService) {
		svc.docStore = s
	}
}

// IngestionWithTransactionStore sets the transaction store
func IngestionWithTransactionStore(s TransactionStore) IngestionServiceOption {
	return func(svc *IngestionService) {
		svc.txStore = s
	}
}

// IngestionWithChunkStore sets the chunk store
func IngestionWithChunkStore(s ChunkStore) IngestionServiceOption {
	return func(svc *IngestionService) {
		svc.chunkStore = s
	}
}

// IngestionWithStorage sets the file storage backend
func IngestionWithStorage(s storage.Storage) IngestionServiceOption {
	return func(svc *IngestionService) {
		svc.fileStorage = s
	}
}

// IngestionWithEmbedder sets the embedding provider
func IngestionWithEmbedder(e embedding.Embedder) IngestionServiceOption {
	return func(svc *IngestionService) {
		svc.embedder = e
	}
}

// IngestionWithChunker sets the text chunker
func IngestionWithChunker(c *parser.Chunker) IngestionServiceOption {
	return func(svc *IngestionService) {
		svc.chunker = c
	}
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(opts ...IngestionServiceOption) *IngestionService {
	svc := &IngestionService{
		chunker: parser.NewChunker(500, 50),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// IngestRequest represents a request to ingest a document
type IngestRequest struct {
	FundID   uuid.UUID
	Filename string
	Data     io.Reader
}

// IngestResult represents the result of accepting a document
type IngestResult struct {
	Document *models.Document
}

// Ingest stores the uploaded file and creates the document record in
// pending status. It must return quickly; the caller spawns Process
// in the background.
func (s *IngestionService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if s.docStore == nil {
		return nil, errors.New("document store not set")
	}
	if s.fileStorage == nil {
		return nil, ErrStorageNotSet
	}

	fileID := uuid.New()
	storagePath, err := s.fileStorage.Upload(ctx, fileID, req.Filename, req.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	doc := &models.Document{
		FundID:      req.FundID,
		Filename:    req.Filename,
		StoragePath: storagePath,
		Status:      models.DocStatusPending,
	}
	if err := s.docStore.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	return &IngestResult{Document: doc}, nil
}

// Status returns the document's current processing status.
func (s *IngestionService) Status(ctx context.Context, documentID uuid.UUID) (*models.Document, error) {
	if s.docStore == nil {
		return nil, errors.New("document store not set")
	}
	doc, err := s.docStore.GetByID(ctx, documentID)
	if err != nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// ProcessStats summarizes one extraction run.
type ProcessStats struct {
	PagesProcessed int
	TablesFound    int
	Transactions   int
	ChunksStored   int
	SkippedTables  int
}

// Process performs extraction for a single document. It runs in a
// background goroutine and may take a while; the compare-and-set
// transition to processing guarantees a document is never extracted
// twice concurrently, and that a terminal document is left untouched.
//
// Rows and tables that fail parsing are skipped. A structural failure
// moves the document to failed with an error message; transactions
// committed before the failure stay in place.
func (s *IngestionService) Process(ctx context.Context, documentID uuid.UUID) error {
	doc, err := s.docStore.GetByID(ctx, documentID)
	if err != nil {
		return ErrDocumentNotFound
	}

	started, err := s.docStore.TransitionStatus(ctx, documentID, models.DocStatusPending, models.DocStatusProcessing, nil)
	if err != nil {
		return fmt.Errorf("failed to start processing: %w", err)
	}
	if !started {
		// Already processing or in a terminal state; nothing to do.
		log.Printf("Document %s not in pending status, skipping", documentID)
		return nil
	}

	stats, err := s.extract(ctx, doc)
	if err != nil {
		s.markFailed(ctx, documentID, err.Error())
		return err
	}

	if _, err := s.docStore.TransitionStatus(ctx, documentID, models.DocStatusProcessing, models.DocStatusCompleted, nil); err != nil {
		return fmt.Errorf("failed to complete document: %w", err)
	}

	log.Printf("Document %s processed: %d pages, %d tables (%d unclassified), %d transactions, %d chunks",
		documentID, stats.PagesProcessed, stats.TablesFound, stats.SkippedTables, stats.Transactions, stats.ChunksStored)
	return nil
}

func (s *IngestionService) extract(ctx context.Context, doc *models.Document) (*ProcessStats, error) {
	reader, err := s.fileStorage.Download(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	stats := &ProcessStats{}
	var transactions []models.Transaction
	var textChunks []parser.TextChunk

	for pageNum, pageText := range parser.SplitPages(string(content)) {
		page := pageNum + 1

		tables := parser.ExtractTables(pageText)
		stats.TablesFound += len(tables)
		for _, table := range tables {
			category := parser.Classify(table)
			if category == parser.CategoryUnknown {
				// Retained for audit via the raw document; produces
				// no transaction records.
				stats.SkippedTables++
				continue
			}
			transactions = append(transactions, parser.ExtractTransactions(table, category, doc.FundID, doc.ID)...)
		}

		textChunks = append(textChunks, s.chunker.Chunk(pageText, page)...)
		stats.PagesProcessed++
	}

	// Replace any previously extracted rows so re-running extraction
	// on an unchanged document never duplicates transactions.
	if s.txStore != nil {
		if err := s.txStore.DeleteByDocument(ctx, doc.ID); err != nil {
			return nil, fmt.Errorf("failed to clear prior transactions: %w", err)
		}
		if err := s.txStore.CreateBatch(ctx, transactions); err != nil {
			return nil, fmt.Errorf("failed to store transactions: %w", err)
		}
		stats.Transactions = len(transactions)
	}

	if err := s.indexChunks(ctx, doc, textChunks, stats); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *IngestionService) indexChunks(ctx context.Context, doc *models.Document, textChunks []parser.TextChunk, stats *ProcessStats) error {
	if s.chunkStore == nil || s.embedder == nil || len(textChunks) == 0 {
		return nil
	}

	texts := make([]string, len(textChunks))
	for i, tc := range textChunks {
		texts[i] = tc.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(textChunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(textChunks))
	}

	chunks := make([]models.Chunk, len(textChunks))
	for i, tc := range textChunks {
		chunks[i] = models.Chunk{
			DocumentID: doc.ID,
			FundID:     doc.FundID,
			PageNumber: tc.PageNumber,
			ChunkIndex: tc.Index,
			Content:    tc.Text,
			Embedding:  vectors[i],
			Metadata: models.ChunkMetadata{
				"filename": doc.Filename,
			},
		}
	}

	if err := s.chunkStore.ReplaceForDocument(ctx, doc.ID, chunks); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	stats.ChunksStored = len(chunks)
	return nil
}

func (s *IngestionService) markFailed(ctx context.Context, documentID uuid.UUID, errorMessage string) {
	ok, err := s.docStore.TransitionStatus(ctx, documentID, models.DocStatusProcessing, models.DocStatusFailed, &errorMessage)
	if err != nil || !ok {
		log.Printf("Warning: failed to mark document %s as failed: %v", documentID, err)
	}
}
