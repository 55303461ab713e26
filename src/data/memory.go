package data

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/moltbook/observatory/src/council"
	"github.com/moltbook/observatory/src/publication"
)

// Memory is an in-memory audit store with the same semantics as MySQL,
// used by tests and local development. Identity assignment happens under the
// same lock as the insert, so it is atomic with respect to concurrent saves.
type Memory struct {
	mu sync.Mutex

	nextDeliberationID uint64
	nextPublicationID  uint64

	deliberations map[uint64]*council.Deliberation
	autoApproved  map[uint64]bool
	publications  map[uint64]*publication.Publication
	logs          []PublicationLog
}

func NewMemory() *Memory {
	return &Memory{
		nextDeliberationID: 1,
		nextPublicationID:  1,
		deliberations:      make(map[uint64]*council.Deliberation),
		autoApproved:       make(map[uint64]bool),
		publications:       make(map[uint64]*publication.Publication),
	}
}

func (m *Memory) SaveDeliberation(ctx context.Context, d *council.Deliberation, autoApproved bool) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextDeliberationID
	m.nextDeliberationID++

	stored := *d
	stored.ID = id
	stored.Votes = append([]council.Vote(nil), d.Votes...)
	stored.CreatedAt = time.Now().UTC()
	if autoApproved {
		stored.ConsensusSummary = "[AUTO] " + stored.ConsensusSummary
	}
	m.deliberations[id] = &stored
	m.autoApproved[id] = autoApproved
	return id, nil
}

// GetDeliberation is a test hook; the SQL store exposes rows to audit
// tooling instead.
func (m *Memory) GetDeliberation(id uint64) (council.Deliberation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliberations[id]
	if !ok {
		return council.Deliberation{}, false
	}
	return *d, true
}

func (m *Memory) MarkDeliberationPublished(ctx context.Context, deliberationID uint64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliberations[deliberationID]
	if !ok {
		return fmt.Errorf("%w: deliberation %d", ErrNotFound, deliberationID)
	}
	t := at
	d.PublishedAt = &t
	return nil
}

func (m *Memory) CreatePublication(ctx context.Context, pub *publication.Publication) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextPublicationID
	m.nextPublicationID++

	stored := *pub
	stored.ID = id
	stored.Targets = append([]string(nil), pub.Targets...)
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	m.publications[id] = &stored
	return id, nil
}

func (m *Memory) GetPublication(ctx context.Context, id uint64) (*publication.Publication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pub, ok := m.publications[id]
	if !ok {
		return nil, fmt.Errorf("%w: publication %d", ErrNotFound, id)
	}
	out := *pub
	out.Targets = append([]string(nil), pub.Targets...)
	return &out, nil
}

func (m *Memory) SetStatus(ctx context.Context, id uint64, status publication.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pub, ok := m.publications[id]
	if !ok {
		return fmt.Errorf("%w: publication %d", ErrNotFound, id)
	}
	pub.Status = status
	pub.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) SetDeliberationResult(ctx context.Context, id uint64, status publication.Status, deliberationID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pub, ok := m.publications[id]
	if !ok {
		return fmt.Errorf("%w: publication %d", ErrNotFound, id)
	}
	pub.Status = status
	did := deliberationID
	pub.DeliberationID = &did
	pub.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) MarkPublished(ctx context.Context, id uint64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pub, ok := m.publications[id]
	if !ok {
		return fmt.Errorf("%w: publication %d", ErrNotFound, id)
	}
	pub.Status = publication.StatusPublished
	t := at
	pub.PublishedAt = &t
	pub.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) AppendLog(ctx context.Context, pubID uint64, action, actor, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, PublicationLog{
		ID:            uint64(len(m.logs) + 1),
		PublicationID: pubID,
		Action:        action,
		Actor:         actor,
		Notes:         notes,
		CreatedAt:     time.Now().UTC(),
	})
	return nil
}

// Logs returns the provenance entries for one publication, oldest first.
func (m *Memory) Logs(pubID uint64) []PublicationLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PublicationLog
	for _, entry := range m.logs {
		if entry.PublicationID == pubID {
			out = append(out, entry)
		}
	}
	return out
}

func (m *Memory) ListQueue(ctx context.Context) ([]publication.Publication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []publication.Publication
	for _, pub := range m.publications {
		if pub.Status == publication.StatusPublished || pub.Status == publication.StatusRejected {
			continue
		}
		out = append(out, *pub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) ListPendingReview(ctx context.Context) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []publication.Publication
	for _, pub := range m.publications {
		if pub.Status == publication.StatusPendingReview {
			pending = append(pending, *pub)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	ids := make([]uint64, 0, len(pending))
	for _, pub := range pending {
		ids = append(ids, pub.ID)
	}
	return ids, nil
}

func (m *Memory) HealthStats(ctx context.Context) (HealthStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats HealthStats
	stats.Deliberations = int64(len(m.deliberations))
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	for _, d := range m.deliberations {
		if d.PublishedAt == nil && d.FinalDecision == council.DecisionPublish {
			stats.AwaitingPublication++
		}
		if d.CreatedAt.After(cutoff) {
			for _, v := range d.Votes {
				if v.Role == council.VetoRole && !v.Approve {
					stats.SecurityRejections24h++
				}
			}
		}
	}
	return stats, nil
}

func (m *Memory) FindUnreviewedPublished(ctx context.Context) ([]publication.Publication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []publication.Publication
	for _, pub := range m.publications {
		if pub.Status == publication.StatusPublished && pub.DeliberationID == nil {
			out = append(out, *pub)
		}
	}
	return out, nil
}
