package importer

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/edd-cli/internal/model"
	"github.com/sells-group/edd-cli/internal/resilience"
	"github.com/sells-group/edd-cli/internal/store"
)

// mockStore implements Store for testing.
type mockStore struct {
	mu sync.Mutex

	uploads     map[string]*model.QueueEntry
	records     map[string]*model.ImportRecord
	claimResult *bool
	commitErr   error
	markErr     error // returned by the processing -> imported step
	transient   int // commits that fail with a retryable error first
	stats       model.CommitStats

	claims      int
	commits     []store.CommitRequest
	imported    []string
	failed      map[string]string
	writes      int
	pendingSets int
}

func newMockStore() *mockStore {
	return &mockStore{
		uploads: map[string]*model.QueueEntry{},
		records: map[string]*model.ImportRecord{},
		failed:  map[string]string{},
	}
}

func (m *mockStore) CreateUpload(_ context.Context, e *model.QueueEntry) error {
	m.uploads[e.ID] = e
	return nil
}

func (m *mockStore) GetUpload(_ context.Context, id string) (*model.QueueEntry, error) {
	e, ok := m.uploads[id]
	if !ok {
		return nil, eris.Wrapf(store.ErrNotFound, "upload %s", id)
	}
	cp := *e
	return &cp, nil
}

func (m *mockStore) ClaimForParse(context.Context, string) (bool, error) { return false, nil }

func (m *mockStore) CompleteParse(context.Context, string, model.ParseOutcome) error { return nil }

func (m *mockStore) FailParse(context.Context, string, []string) error { return nil }

func (m *mockStore) ClaimForImport(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims++
	if m.claimResult != nil {
		return *m.claimResult, nil
	}
	e := m.uploads[id]
	if e.Status != model.QueueParsed {
		return false, nil
	}
	e.Status = model.QueueProcessing
	return true, nil
}

func (m *mockStore) FailImport(_ context.Context, id, message string) error {
	m.writes++
	m.failed[id] = message
	m.uploads[id].Status = model.QueueFailed
	return nil
}

func (m *mockStore) SetPendingAudit(context.Context, string, []byte) error {
	m.pendingSets++
	return nil
}

func (m *mockStore) CreateImportRecord(_ context.Context, r *model.ImportRecord) error {
	m.writes++
	if r.ID == "" {
		r.ID = "rec-new"
	}
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *mockStore) UpdateImportRecord(_ context.Context, r *model.ImportRecord) error {
	m.writes++
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *mockStore) GetImportRecord(_ context.Context, id string) (*model.ImportRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, eris.Wrapf(store.ErrNotFound, "import record %s", id)
	}
	cp := *r
	return &cp, nil
}

func (m *mockStore) CommitBatch(_ context.Context, req store.CommitRequest) (model.CommitStats, error) {
	m.writes++
	m.commits = append(m.commits, req)
	if m.transient > 0 {
		m.transient--
		return model.CommitStats{}, resilience.NewTransientError(eris.New("database is locked"))
	}
	if m.commitErr != nil {
		return model.CommitStats{}, m.commitErr
	}
	// The mark runs inside the commit; a failure here discards the batch.
	if m.markErr != nil {
		return model.CommitStats{}, m.markErr
	}
	e := m.uploads[req.UploadID]
	if e == nil || e.Status != model.QueueProcessing {
		return model.CommitStats{}, eris.Wrapf(store.ErrNotProcessing, "upload %s", req.UploadID)
	}
	m.imported = append(m.imported, req.UploadID)
	e.Status = model.QueueImported
	recordID := req.ImportRecordID
	e.ImportRecordID = &recordID
	return m.stats, nil
}
