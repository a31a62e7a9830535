package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"syncmesh/internal/domain/document"
	"syncmesh/internal/domain/peer"
)

// memStore is an in-memory document.Store for engine tests.
type memStore struct {
	mu   sync.Mutex
	docs map[string]*document.Document
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]*document.Document)}
}

func key(doctype, name string) string {
	return doctype + "/" + name
}

func (s *memStore) put(doc *document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key(doc.Doctype, doc.Name)] = doc
}

func (s *memStore) Exists(_ context.Context, doctype, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[key(doctype, name)]
	return ok, nil
}

func (s *memStore) Get(_ context.Context, doctype, name string) (*document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key(doctype, name)]
	if !ok {
		return nil, document.ErrNotFound
	}
	out := document.New(doc.Doctype, doc.Name)
	out.Docstatus = doc.Docstatus
	out.Owner = doc.Owner
	out.Creation = doc.Creation
	out.Modified = doc.Modified
	out.ModifiedBy = doc.ModifiedBy
	out.Fields = doc.Fields.Clone()
	for fieldname, rows := range doc.Children {
		copied := make([]document.ChildRow, len(rows))
		copy(copied, rows)
		out.Children[fieldname] = copied
	}
	return out, nil
}

func (s *memStore) Save(ctx context.Context, doc *document.Document) error {
	doc.Modified = time.Now().UTC()
	s.put(doc)
	return nil
}

func (s *memStore) Delete(ctx context.Context, doctype, name string) error {
	return s.DeleteDirect(ctx, doctype, name)
}

func (s *memStore) InsertDirect(_ context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(doc.Doctype, doc.Name)
	if _, ok := s.docs[k]; ok {
		return fmt.Errorf("duplicate insert for %s", k)
	}
	stored := document.New(doc.Doctype, doc.Name)
	stored.Docstatus = doc.Docstatus
	stored.Modified = doc.Modified
	stored.Fields = doc.Fields.Clone()
	s.docs[k] = stored
	return nil
}

func (s *memStore) UpdateDirect(_ context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.docs[key(doc.Doctype, doc.Name)]
	if !ok {
		return document.ErrNotFound
	}
	stored.Fields = doc.Fields.Clone()
	stored.Modified = doc.Modified
	return nil
}

func (s *memStore) SetDocstatusDirect(_ context.Context, doctype, name string, status document.Docstatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.docs[key(doctype, name)]
	if !ok {
		return document.ErrNotFound
	}
	stored.Docstatus = status
	return nil
}

func (s *memStore) DeleteDirect(_ context.Context, doctype, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(doctype, name)
	if _, ok := s.docs[k]; !ok {
		return document.ErrNotFound
	}
	delete(s.docs, k)
	return nil
}

func (s *memStore) ChildRows(_ context.Context, doctype, name, fieldname string) ([]document.ChildRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key(doctype, name)]
	if !ok {
		return nil, nil
	}
	rows := make([]document.ChildRow, len(doc.Children[fieldname]))
	copy(rows, doc.Children[fieldname])
	sort.Slice(rows, func(i, j int) bool { return rows[i].Idx < rows[j].Idx })
	return rows, nil
}

func (s *memStore) UpsertChildDirect(_ context.Context, doctype, name, fieldname string, row document.ChildRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key(doctype, name)]
	if !ok {
		return document.ErrNotFound
	}
	if doc.Children == nil {
		doc.Children = make(map[string][]document.ChildRow)
	}
	rows := doc.Children[fieldname]
	for i := range rows {
		if rows[i].Name == row.Name {
			rows[i] = row
			return nil
		}
	}
	doc.Children[fieldname] = append(rows, row)
	return nil
}

func (s *memStore) DeleteChildDirect(_ context.Context, doctype, name, fieldname, rowName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key(doctype, name)]
	if !ok {
		return document.ErrNotFound
	}
	rows := doc.Children[fieldname]
	for i := range rows {
		if rows[i].Name == rowName {
			doc.Children[fieldname] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memStore) InTransaction(ctx context.Context, fn func(ctx context.Context, tx document.Store) error) error {
	return fn(ctx, s)
}

// stubPolicies serves policies from a fixed map.
type stubPolicies struct {
	policies map[string]*Policy
}

func newStubPolicies(policies ...*Policy) *stubPolicies {
	out := &stubPolicies{policies: make(map[string]*Policy)}
	for _, p := range policies {
		out.policies[p.Doctype] = p
	}
	return out
}

func (s *stubPolicies) Get(_ context.Context, doctype string) (*Policy, error) {
	p, ok := s.policies[doctype]
	if !ok {
		return nil, ErrPolicyNotFound
	}
	return p, nil
}

func (s *stubPolicies) List(_ context.Context) ([]*Policy, error) {
	out := make([]*Policy, 0, len(s.policies))
	for _, p := range s.policies {
		out = append(out, p)
	}
	return out, nil
}

// memLogs is an in-memory LogRepository.
type memLogs struct {
	mu   sync.Mutex
	logs map[string]*Log
}

func newMemLogs() *memLogs {
	return &memLogs{logs: make(map[string]*Log)}
}

func (r *memLogs) Create(_ context.Context, l *Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *l
	r.logs[l.ID] = &copied
	return nil
}

func (r *memLogs) Get(_ context.Context, id string) (*Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return nil, ErrLogNotFound
	}
	copied := *l
	return &copied, nil
}

func (r *memLogs) SetStatus(_ context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return ErrLogNotFound
	}
	l.Status = status
	l.Error = ""
	return nil
}

func (r *memLogs) SetFailure(_ context.Context, id string, errText string, retryCount int, nextRetryAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return ErrLogNotFound
	}
	l.Status = StatusFailed
	l.Error = errText
	l.RetryCount = retryCount
	l.NextRetryAt = nextRetryAt
	return nil
}

func (r *memLogs) List(_ context.Context, filter LogFilter) ([]*Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Log
	for _, l := range r.logs {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.Direction != "" && l.Direction != filter.Direction {
			continue
		}
		if filter.Doctype != "" && l.Doctype != filter.Doctype {
			continue
		}
		if filter.Peer != "" && l.Peer != filter.Peer {
			continue
		}
		copied := *l
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memLogs) DueForRetry(_ context.Context, now time.Time, limit int) ([]*Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Log
	for _, l := range r.logs {
		if l.Status != StatusFailed || l.Direction != DirectionOutgoing {
			continue
		}
		if l.RetryCount >= MaxRetries {
			continue
		}
		if !l.NextRetryAt.IsZero() && l.NextRetryAt.After(now) {
			continue
		}
		copied := *l
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memLogs) DeleteSuccessfulBefore(_ context.Context, cutoff time.Time, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, l := range r.logs {
		if removed >= limit {
			break
		}
		if l.Status == StatusSuccess && l.CreatedAt.Before(cutoff) {
			delete(r.logs, id)
			removed++
		}
	}
	return removed, nil
}

func (r *memLogs) all() []*Log {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Log, 0, len(r.logs))
	for _, l := range r.logs {
		copied := *l
		out = append(out, &copied)
	}
	return out
}

// memPeers is an in-memory peer.Repository.
type memPeers struct {
	mu    sync.Mutex
	peers map[string]*peer.Peer
}

func newMemPeers(peers ...*peer.Peer) *memPeers {
	out := &memPeers{peers: make(map[string]*peer.Peer)}
	for _, p := range peers {
		copied := *p
		out.peers[p.Name] = &copied
	}
	return out
}

func (r *memPeers) Get(_ context.Context, name string) (*peer.Peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[name]
	if !ok {
		return nil, peer.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memPeers) List(_ context.Context) ([]*peer.Peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*peer.Peer, 0, len(r.peers))
	for _, p := range r.peers {
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memPeers) ListEnabled(ctx context.Context) ([]*peer.Peer, error) {
	all, _ := r.List(ctx)
	var out []*peer.Peer
	for _, p := range all {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPeers) Create(_ context.Context, p *peer.Peer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[p.Name]; ok {
		return peer.ErrAlreadyExists
	}
	copied := *p
	r.peers[p.Name] = &copied
	return nil
}

func (r *memPeers) SetStatus(_ context.Context, name string, status peer.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[name]
	if !ok {
		return peer.ErrNotFound
	}
	p.Status = status
	return nil
}

func (r *memPeers) SetRemoteSiteID(_ context.Context, name, siteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[name]
	if !ok {
		return peer.ErrNotFound
	}
	p.RemoteSiteID = siteID
	return nil
}

func (r *memPeers) SetLastSyncAt(_ context.Context, name string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[name]
	if !ok {
		return peer.ErrNotFound
	}
	p.LastSyncAt = at
	return nil
}

// stubSettings serves fixed engine settings.
type stubSettings struct {
	settings Settings
	err      error
}

func (s *stubSettings) Get(_ context.Context) (*Settings, error) {
	if s.err != nil {
		return nil, s.err
	}
	copied := s.settings
	return &copied, nil
}

func (s *stubSettings) EnsureSiteID(_ context.Context, candidate string) (string, error) {
	if s.settings.SiteID == "" {
		s.settings.SiteID = candidate
	}
	return s.settings.SiteID, nil
}

// fakeCaller is a scriptable PeerCaller.
type fakeCaller struct {
	mu    sync.Mutex
	err   error
	calls []ReceiveRequest
}

func (c *fakeCaller) ReceiveSync(_ context.Context, _ *peer.Peer, req ReceiveRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)
	return c.err
}

func (c *fakeCaller) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *fakeCaller) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// syncEnqueuer runs jobs inline so tests stay deterministic.
type syncEnqueuer struct {
	jobs int
	err  error
}

func (e *syncEnqueuer) Enqueue(job func(ctx context.Context)) error {
	if e.err != nil {
		return e.err
	}
	e.jobs++
	job(context.Background())
	return nil
}
