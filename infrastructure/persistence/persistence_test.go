package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"mindboard/application/ports"
	"mindboard/domain/core/aggregates"
	"mindboard/domain/core/entities"
	"mindboard/infrastructure/persistence/memory"
	"mindboard/infrastructure/persistence/storetest"
	"mindboard/pkg/observability"
)

// stubStore wraps a memory store, counting calls and optionally failing saves
type stubStore struct {
	*memory.DocumentStore

	mu      sync.Mutex
	saves   []string
	loads   int
	saveErr error
	block   chan struct{}
}

func newStubStore() *stubStore {
	return &stubStore{DocumentStore: memory.NewDocumentStore()}
}

func (s *stubStore) Save(ctx context.Context, id string, nodes []entities.Node) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	s.saves = append(s.saves, id)
	err := s.saveErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.DocumentStore.Save(ctx, id, nodes)
}

func (s *stubStore) Load(ctx context.Context, id string) (*aggregates.Document, error) {
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
	return s.DocumentStore.Load(ctx, id)
}

func (s *stubStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

var _ ports.DocumentStore = (*stubStore)(nil)

func seed(t *testing.T, store ports.DocumentStore) *aggregates.Document {
	t.Helper()
	doc := storetest.NewDocument(t, "Saved")
	require.NoError(t, store.Create(context.Background(), doc))
	return doc
}

func TestAsyncSaver_WritesInOrder(t *testing.T) {
	store := newStubStore()
	doc := seed(t, store)
	metrics := observability.NewCollector("test")
	saver := NewAsyncSaver(store, DefaultSaverConfig(), metrics, zap.NewNop())

	nodes := doc.Nodes()
	save := saver.SaveFunc()
	save(doc.ID().String(), nodes[:1])
	save(doc.ID().String(), nodes[:2])
	save(doc.ID().String(), nodes)

	require.NoError(t, saver.Close(context.Background()))

	got, err := store.DocumentStore.Load(context.Background(), doc.ID().String())
	require.NoError(t, err)
	assert.Len(t, got.Nodes(), 3, "last snapshot wins")
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Saves.WithLabelValues(StatusOK)))
}

func TestAsyncSaver_SnapshotIsCopied(t *testing.T) {
	store := newStubStore()
	doc := seed(t, store)
	store.block = make(chan struct{})
	saver := NewAsyncSaver(store, DefaultSaverConfig(), nil, nil)

	nodes := doc.Nodes()
	saver.Save(doc.ID().String(), nodes)
	nodes[0] = nodes[0].WithLabel("changed after save")
	close(store.block)

	require.NoError(t, saver.Close(context.Background()))
	got, err := store.DocumentStore.Load(context.Background(), doc.ID().String())
	require.NoError(t, err)
	assert.NotEqual(t, "changed after save", got.Nodes()[0].Label())
}

func TestAsyncSaver_DropsWhenFull(t *testing.T) {
	store := newStubStore()
	doc := seed(t, store)
	store.block = make(chan struct{})

	core, logs := observer.New(zapcore.WarnLevel)
	metrics := observability.NewCollector("test")
	saver := NewAsyncSaver(store, SaverConfig{QueueSize: 1}, metrics, zap.New(core))

	id := doc.ID().String()
	saver.Save(id, nil) // taken by the worker, which blocks
	assert.Eventually(t, func() bool { return len(saver.queue) == 0 }, time.Second, time.Millisecond)
	saver.Save(id, nil) // fills the queue
	saver.Save(id, nil) // dropped

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SavesDropped))
	assert.Equal(t, 1, logs.FilterMessage("Save dropped").Len())

	close(store.block)
	require.NoError(t, saver.Close(context.Background()))
	assert.Equal(t, 2, store.saveCount())

	saver.Save(id, nil)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SavesDropped), "saves after close are dropped")
}

func TestAsyncSaver_BreakerOpens(t *testing.T) {
	store := newStubStore()
	doc := seed(t, store)
	store.saveErr = errors.New("disk on fire")
	metrics := observability.NewCollector("test")

	saver := NewAsyncSaver(store, SaverConfig{
		QueueSize:       10,
		BreakerFailures: 2,
		BreakerCooldown: time.Hour,
	}, metrics, zap.NewNop())

	for i := 0; i < 5; i++ {
		saver.Save(doc.ID().String(), nil)
	}
	require.NoError(t, saver.Close(context.Background()))

	assert.Equal(t, 2, store.saveCount(), "the breaker stops calling the store")
	assert.Equal(t, gobreaker.StateOpen, saver.State())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Saves.WithLabelValues(StatusError)))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Saves.WithLabelValues(StatusRejected)))
}

func TestAsyncSaver_NotFoundKeepsBreakerClosed(t *testing.T) {
	store := newStubStore()
	saver := NewAsyncSaver(store, SaverConfig{BreakerFailures: 1}, nil, nil)

	saver.Save("missing", nil)
	saver.Save("missing", nil)
	require.NoError(t, saver.Close(context.Background()))

	assert.Equal(t, gobreaker.StateClosed, saver.State())
	assert.Equal(t, 2, store.saveCount())
}

func TestAsyncSaver_CloseHonorsContext(t *testing.T) {
	store := newStubStore()
	doc := seed(t, store)
	store.block = make(chan struct{})
	saver := NewAsyncSaver(store, DefaultSaverConfig(), nil, nil)
	saver.Save(doc.ID().String(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, saver.Close(ctx), context.DeadlineExceeded)

	close(store.block)
	assert.NoError(t, saver.Close(context.Background()))
}

func TestLoggingStore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	store := NewLoggingStore(memory.NewDocumentStore(), zap.New(core), DefaultLoggingConfig())
	ctx := context.Background()

	doc := seed(t, store)
	_, err := store.Load(ctx, doc.ID().String())
	require.NoError(t, err)
	_, err = store.Load(ctx, "missing")
	require.Error(t, err)

	completed := logs.FilterMessage("store operation completed").All()
	require.Len(t, completed, 2)
	assert.Equal(t, "create", completed[0].ContextMap()["operation"])
	assert.Equal(t, int64(3), completed[1].ContextMap()["node_count"])

	missing := logs.FilterMessage("document not found").All()
	require.Len(t, missing, 1)
	assert.Equal(t, zapcore.DebugLevel, missing[0].Level)
	assert.Equal(t, "document_store", missing[0].LoggerName)
}

func TestLoggingStore_SlowAndFailed(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	inner := newStubStore()
	inner.saveErr = errors.New("boom")
	store := NewLoggingStore(inner, zap.New(core), LoggingConfig{
		LogErrors:     true,
		LogLevel:      zapcore.DebugLevel,
		SlowThreshold: time.Nanosecond,
	})

	doc := seed(t, store)
	assert.Error(t, store.Save(context.Background(), doc.ID().String(), nil))

	assert.Equal(t, 1, logs.FilterMessage("slow store operation completed").Len())
	failed := logs.FilterMessage("store operation failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
}

func TestCachingStore(t *testing.T) {
	inner := newStubStore()
	store := NewCachingStore(inner, time.Minute)
	ctx := context.Background()
	doc := seed(t, store)
	id := doc.ID().String()

	first, err := store.Load(ctx, id)
	require.NoError(t, err)
	_, err = store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.loads, "second load is cached")

	require.NoError(t, store.Save(ctx, id, first.Nodes()[:1]))
	got, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Nodes(), 1, "save refreshes the cached copy")
	assert.Equal(t, 1, inner.loads)

	now := time.Now()
	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.loads, "expired entries reload")

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Load(ctx, id)
	assert.Error(t, err)
}

func TestCachingStore_FailedSaveEvicts(t *testing.T) {
	inner := newStubStore()
	store := NewCachingStore(inner, time.Minute)
	ctx := context.Background()
	doc := seed(t, store)
	id := doc.ID().String()

	_, err := store.Load(ctx, id)
	require.NoError(t, err)

	inner.saveErr = errors.New("nope")
	assert.Error(t, store.Save(ctx, id, nil))

	got, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Nodes(), 3)
	assert.Equal(t, 2, inner.loads)
}
