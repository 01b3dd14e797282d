package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"fundsight-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocStore struct {
	mu   sync.Mutex
	docs map[uuid.UUID]models.Document
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: make(map[uuid.UUID]models.Document)}
}

func (s *fakeDocStore) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	s.docs[doc.ID] = *doc
	return nil
}

func (s *fakeDocStore) GetByID(_ context.Context, id uuid.UUID) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("no document %s", id)
	}
	return &doc, nil
}

func (s *fakeDocStore) TransitionStatus(_ context.Context, id uuid.UUID, from, to models.DocumentStatus, errorMessage *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok || doc.Status != from {
		return false, nil
	}
	doc.Status = to
	doc.ErrorMessage = errorMessage
	s.docs[id] = doc
	return true, nil
}

func (s *fakeDocStore) setStatus(id uuid.UUID, status models.DocumentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docs[id]
	doc.Status = status
	s.docs[id] = doc
}

type fakeTxStore struct {
	mu      sync.Mutex
	txs     map[uuid.UUID][]models.Transaction
	deletes int
}

func newFakeTxStore() *fakeTxStore {
	return &fakeTxStore{txs: make(map[uuid.UUID][]models.Transaction)}
}

func (s *fakeTxStore) CreateBatch(_ context.Context, txs []models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txs {
		s.txs[t.DocumentID] = append(s.txs[t.DocumentID], t)
	}
	return nil
}

func (s *fakeTxStore) DeleteByDocument(_ context.Context, documentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	delete(s.txs, documentID)
	return nil
}

func (s *fakeTxStore) forDocument(documentID uuid.UUID) []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txs[documentID]
}

type fakeChunkStore struct {
	mu       sync.Mutex
	chunks   map[uuid.UUID][]models.Chunk
	replaces int
}

func newFakeChunkStore() *fakeChunkStore {
	return &fakeChunkStore{chunks: make(map[uuid.UUID][]models.Chunk)}
}

func (s *fakeChunkStore) ReplaceForDocument(_ context.Context, documentID uuid.UUID, chunks []models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaces++
	s.chunks[documentID] = chunks
	return nil
}

func (s *fakeChunkStore) forDocument(documentID uuid.UUID) []models.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunks[documentID]
}

type fakeStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(_ context.Context, fileID uuid.UUID, filename string, data io.Reader) (string, error) {
	content, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	path := fileID.String() + "/" + filename
	s.mu.Lock()
	s.files[path] = content
	s.mu.Unlock()
	return path, nil
}

func (s *fakeStorage) Download(_ context.Context, storagePath string) (io.ReadCloser, error) {
	s.mu.Lock()
	content, ok := s.files[storagePath]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("file not found: %s", storagePath)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (s *fakeStorage) Delete(_ context.Context, storagePath string) error {
	s.mu.Lock()
	delete(s.files, storagePath)
	s.mu.Unlock()
	return nil
}

type fakeEmbedder struct {
	dimension int
	fail      bool
	embedded  int
}

func (e *fakeEmbedder) vector() []float64 {
	v := make([]float64, e.dimension)
	for i := range v {
		v[i] = 0.1
	}
	return v
}

func (e *fakeEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	if e.fail {
		return nil, fmt.Errorf("embedding unavailable")
	}
	e.embedded++
	return e.vector(), nil
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	if e.fail {
		return nil, fmt.Errorf("embedding unavailable")
	}
	e.embedded += len(texts)
	vectors := make([][]float64, len(texts))
	for i := range vectors {
		vectors[i] = e.vector()
	}
	return vectors, nil
}

func (e *fakeEmbedder) Dimension() int {
	return e.dimension
}

const sampleReport = "Acme Growth Fund II quarterly report to the limited partners. " +
	"This statement summarizes capital activity for the period.\n\n" +
	"Call Date | Capital Call Amount | Purpose\n" +
	"2023-01-15 | $1,000,000 | Investment\n" +
	"2023-03-10 | $500,000 | Investment\n" +
	"\f" +
	"Distributions declared during the period are listed below with their recallable status.\n\n" +
	"Distribution Date | Amount | Recallable\n" +
	"2023-06-30 | $250,000 | No\n"

type ingestionFixture struct {
	svc     *IngestionService
	docs    *fakeDocStore
	txs     *fakeTxStore
	chunks  *fakeChunkStore
	storage *fakeStorage
}

func newIngestionFixture() *ingestionFixture {
	f := &ingestionFixture{
		docs:    newFakeDocStore(),
		txs:     newFakeTxStore(),
		chunks:  newFakeChunkStore(),
		storage: newFakeStorage(),
	}
	f.svc = NewIngestionService(
		IngestionWithDocumentStore(f.docs),
		IngestionWithTransactionStore(f.txs),
		IngestionWithChunkStore(f.chunks),
		IngestionWithStorage(f.storage),
		IngestionWithEmbedder(&fakeEmbedder{dimension: 3}),
	)
	return f
}

func (f *ingestionFixture) ingest(t *testing.T) *models.Document {
	t.Helper()
	result, err := f.svc.Ingest(context.Background(), IngestRequest{
		FundID:   uuid.New(),
		Filename: "q2-report.txt",
		Data:     strings.NewReader(sampleReport),
	})
	require.NoError(t, err)
	return result.Document
}

func TestIngestCreatesPendingDocument(t *testing.T) {
	f := newIngestionFixture()
	doc := f.ingest(t)

	assert.Equal(t, models.DocStatusPending, doc.Status)
	assert.NotEqual(t, uuid.Nil, doc.ID)
	assert.NotEmpty(t, doc.StoragePath)

	stored, err := f.svc.Status(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusPending, stored.Status)
}

func TestProcessExtractsTransactionsAndChunks(t *testing.T) {
	f := newIngestionFixture()
	doc := f.ingest(t)

	require.NoError(t, f.svc.Process(context.Background(), doc.ID))

	stored, err := f.svc.Status(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusCompleted, stored.Status)
	assert.Nil(t, stored.ErrorMessage)

	txs := f.txs.forDocument(doc.ID)
	require.Len(t, txs, 3)

	var calls, dists int
	for _, tx := range txs {
		switch tx.Kind {
		case models.KindCapitalCall:
			calls++
		case models.KindDistribution:
			dists++
			assert.False(t, tx.IsRecallable)
		}
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, dists)

	chunks := f.chunks.forDocument(doc.ID)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Equal(t, doc.FundID, chunk.FundID)
		assert.Len(t, chunk.Embedding, 3)
		assert.Equal(t, "q2-report.txt", chunk.Metadata["filename"])
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	f := newIngestionFixture()
	doc := f.ingest(t)

	require.NoError(t, f.svc.Process(context.Background(), doc.ID))
	first := f.txs.forDocument(doc.ID)

	f.docs.setStatus(doc.ID, models.DocStatusPending)
	require.NoError(t, f.svc.Process(context.Background(), doc.ID))

	second := f.txs.forDocument(doc.ID)
	assert.Equal(t, len(first), len(second))
	assert.Equal(t, 2, f.txs.deletes)
	assert.Equal(t, 2, f.chunks.replaces)
}

func TestProcessSkipsNonPendingDocument(t *testing.T) {
	f := newIngestionFixture()
	doc := f.ingest(t)
	f.docs.setStatus(doc.ID, models.DocStatusCompleted)

	require.NoError(t, f.svc.Process(context.Background(), doc.ID))

	// Terminal documents are left untouched.
	stored, err := f.svc.Status(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusCompleted, stored.Status)
	assert.Empty(t, f.txs.forDocument(doc.ID))
}

func TestProcessMarksFailedOnStorageError(t *testing.T) {
	f := newIngestionFixture()
	doc := &models.Document{
		FundID:      uuid.New(),
		Filename:    "lost.txt",
		StoragePath: "missing/lost.txt",
		Status:      models.DocStatusPending,
	}
	require.NoError(t, f.docs.Create(context.Background(), doc))

	err := f.svc.Process(context.Background(), doc.ID)
	require.Error(t, err)

	stored, statusErr := f.svc.Status(context.Background(), doc.ID)
	require.NoError(t, statusErr)
	assert.Equal(t, models.DocStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "lost.txt")
}

func TestProcessUnknownDocument(t *testing.T) {
	f := newIngestionFixture()
	err := f.svc.Process(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestProcessSkipsUnclassifiedTables(t *testing.T) {
	f := newIngestionFixture()

	content := "Portfolio company operating summary for the quarter under review.\n\n" +
		"Company | Sector | Headquarters\n" +
		"Meridian Labs | Software | Austin\n" +
		"Northwind Logistics | Transport | Chicago\n"

	result, err := f.svc.Ingest(context.Background(), IngestRequest{
		FundID:   uuid.New(),
		Filename: "portfolio.txt",
		Data:     strings.NewReader(content),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Process(context.Background(), result.Document.ID))

	stored, err := f.svc.Status(context.Background(), result.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusCompleted, stored.Status)
	assert.Empty(t, f.txs.forDocument(result.Document.ID))
}
