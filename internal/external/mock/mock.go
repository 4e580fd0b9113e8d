// Package mock provides deterministic fakes of the internal/external
// collaborator interfaces, for tests and for exercising the six end-to-end
// seed scenarios (spec §8) without a real indexer, download client, or
// metadata provider.
package mock

import (
	"context"
	"sync"

	"github.com/cinephage/cinephage/internal/external"
)

// Indexer is a scriptable external.IndexerAdapter: each call to Search
// returns (and removes) the next queued response, so a test can script a
// sequence of search results across repeated task runs.
type Indexer struct {
	def       external.IndexerDefinition
	mu        sync.Mutex
	responses [][]external.Release
	err       error
	calls     int
}

// NewIndexer creates a mock indexer with a fixed definition.
func NewIndexer(def external.IndexerDefinition) *Indexer {
	return &Indexer{def: def}
}

func (i *Indexer) Definition() external.IndexerDefinition { return i.def }

// Enqueue appends one scripted response, returned on the next Search call.
func (i *Indexer) Enqueue(releases []external.Release) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.responses = append(i.responses, releases)
}

// FailNext configures the next Search call to return err.
func (i *Indexer) FailNext(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.err = err
}

func (i *Indexer) Search(ctx context.Context, criteria external.Criteria) ([]external.Release, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++

	if i.err != nil {
		err := i.err
		i.err = nil
		return nil, err
	}
	if len(i.responses) == 0 {
		return nil, nil
	}
	next := i.responses[0]
	i.responses = i.responses[1:]
	return next, nil
}

func (i *Indexer) Download(ctx context.Context, r external.Release) (external.DownloadPayload, error) {
	return external.DownloadPayload{Magnet: "magnet:?xt=urn:btih:" + r.InfoHash}, nil
}

// Calls reports how many times Search was invoked, for rate-limit and
// concurrency-cap assertions.
func (i *Indexer) Calls() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}

// DownloadClient is a deterministic external.DownloadClientAdapter: jobs
// report whatever state the test last set for them with SetStatus.
type DownloadClient struct {
	def external.DownloadClientDefinition

	mu      sync.Mutex
	jobs    map[string]external.ClientStatus
	nextID  int
}

// NewDownloadClient creates a mock client with a fixed definition.
func NewDownloadClient(def external.DownloadClientDefinition) *DownloadClient {
	return &DownloadClient{def: def, jobs: make(map[string]external.ClientStatus)}
}

func (c *DownloadClient) Definition() external.DownloadClientDefinition { return c.def }

func (c *DownloadClient) Add(ctx context.Context, payload external.DownloadPayload, category string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := itoa(c.nextID)
	c.jobs[id] = external.ClientStatus{State: external.ClientStateQueued}
	return id, nil
}

func (c *DownloadClient) Status(ctx context.Context, externalID string) (external.ClientStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.jobs[externalID]
	if !ok {
		return external.ClientStatus{State: external.ClientStateMissing}, nil
	}
	return s, nil
}

func (c *DownloadClient) Remove(ctx context.Context, externalID string, deleteData bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.jobs, externalID)
	return nil
}

// SetStatus overwrites a job's status, driving it through a test's scripted
// transitions (queued -> downloading -> completed, or -> error).
func (c *DownloadClient) SetStatus(externalID string, status external.ClientStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs[externalID] = status
}

// Importer is a deterministic external.ImportCollaborator.
type Importer struct {
	mu  sync.Mutex
	err error
}

func (im *Importer) FailNext(err error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.err = err
}

func (im *Importer) Import(ctx context.Context, contentKey, sourcePath string) (string, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.err != nil {
		err := im.err
		im.err = nil
		return "", err
	}
	return sourcePath, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
