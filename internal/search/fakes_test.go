package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"catalog/internal/rbac/apperrors"
)

type fakeTarget struct {
	mu          sync.Mutex
	down        bool
	failUpserts int
	delay       time.Duration
	applied     []string
	inFlight    int
	maxInFlight int
	pings       int
	reconnects  int
}

func (f *fakeTarget) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeTarget) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	if f.down {
		return fmt.Errorf("%w: connection refused", apperrors.ErrBackendUnavailable)
	}
	return nil
}

func (f *fakeTarget) enter() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
}

func (f *fakeTarget) leave(entry string, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	if err == nil {
		f.applied = append(f.applied, entry)
	}
	return err
}

func (f *fakeTarget) Upsert(ctx context.Context, typeName string, record any) error {
	f.enter()
	f.mu.Lock()
	var err error
	if f.failUpserts > 0 {
		f.failUpserts--
		err = fmt.Errorf("%w: timeout", apperrors.ErrBackendUnavailable)
	}
	f.mu.Unlock()
	if record == nil {
		err = ErrInvalidPayload
	}
	return f.leave(fmt.Sprintf("upsert:%v", record), err)
}

func (f *fakeTarget) Delete(ctx context.Context, typeName, id string) error {
	f.enter()
	return f.leave("delete:"+id, nil)
}

func (f *fakeTarget) Reconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnects++
	return nil
}

func (f *fakeTarget) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.applied...)
}

type fakeBackend struct {
	mu        sync.Mutex
	docs      map[string]*Document
	ensured   int
	recreated int
	pingErr   error
	indexErr  error
	lastFrom  int
	lastSize  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{docs: make(map[string]*Document)}
}

func (b *fakeBackend) Ping(ctx context.Context) error { return b.pingErr }

func (b *fakeBackend) EnsureIndex(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensured++
	return nil
}

func (b *fakeBackend) IndexDocument(ctx context.Context, doc *Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.indexErr != nil {
		return b.indexErr
	}
	b.docs[doc.ID] = doc
	return nil
}

func (b *fakeBackend) DeleteDocument(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.docs, id)
	return nil
}

func (b *fakeBackend) RecreateIndex(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recreated++
	b.docs = make(map[string]*Document)
	return nil
}

func (b *fakeBackend) BulkIndex(ctx context.Context, docs []*Document) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range docs {
		b.docs[d.ID] = d
	}
	return len(docs), nil
}

func (b *fakeBackend) Search(ctx context.Context, keyword string, from, size int) (*Hits, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastFrom, b.lastSize = from, size
	score := 1.5
	return &Hits{Total: 25, Hits: []Hit{{ID: "p1", Name: "Red shoe", Price: 10, Score: &score}}}, nil
}

func (b *fakeBackend) Reconnect() error { return nil }

var errBoom = errors.New("boom")
