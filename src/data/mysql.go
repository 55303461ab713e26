package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/moltbook/observatory/src/council"
	"github.com/moltbook/observatory/src/publication"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("data: not found")

func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Deliberation{}, &AgentVote{},
		&Publication{}, &PublicationLog{},
	)
}

// MySQL is the audit store. It exclusively owns persisted identity
// generation: every create hands back the id assigned by the write itself.
type MySQL struct {
	db *gorm.DB
}

func NewMySQL(db *gorm.DB) *MySQL { return &MySQL{db: db} }

// SaveDeliberation commits a deliberation and its votes in one transaction
// and returns the new id. gorm.Create populates the primary key in-struct,
// so the id never has to be recovered by a later query.
func (s *MySQL) SaveDeliberation(ctx context.Context, d *council.Deliberation, autoApproved bool) (uint64, error) {
	votesJSON, err := json.Marshal(d.Votes)
	if err != nil {
		return 0, fmt.Errorf("marshal votes: %w", err)
	}

	summary := d.ConsensusSummary
	if autoApproved {
		summary = "[AUTO] " + summary
	}

	row := Deliberation{
		Topic:            d.Topic,
		Content:          d.Content,
		VotesJSON:        string(votesJSON),
		FinalDecision:    string(d.FinalDecision),
		ConsensusSummary: summary,
		AutoApproved:     autoApproved,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		for _, v := range d.Votes {
			concerns, _ := json.Marshal(v.Concerns)
			suggestions, _ := json.Marshal(v.Suggestions)
			voteRow := AgentVote{
				DeliberationID:  row.ID,
				AgentRole:       string(v.Role),
				Approve:         v.Approve,
				Reasoning:       v.Reasoning,
				ConcernsJSON:    string(concerns),
				SuggestionsJSON: string(suggestions),
				ParseFailed:     v.ParseFailed,
			}
			if err := tx.Create(&voteRow).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}

func (s *MySQL) MarkDeliberationPublished(ctx context.Context, deliberationID uint64, at time.Time) error {
	return s.db.WithContext(ctx).Model(&Deliberation{}).
		Where("id = ?", deliberationID).
		Update("published_at", at).Error
}

func (s *MySQL) CreatePublication(ctx context.Context, pub *publication.Publication) (uint64, error) {
	targets, err := json.Marshal(pub.Targets)
	if err != nil {
		return 0, err
	}
	row := Publication{
		Title:          pub.Title,
		Content:        pub.Content,
		Category:       pub.Category,
		Status:         string(pub.Status),
		DeliberationID: pub.DeliberationID,
		PublishTargets: string(targets),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, err
	}
	return row.ID, nil
}

func (s *MySQL) GetPublication(ctx context.Context, id uint64) (*publication.Publication, error) {
	var row Publication
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: publication %d", ErrNotFound, id)
		}
		return nil, err
	}
	return publicationFromRow(row), nil
}

func (s *MySQL) SetStatus(ctx context.Context, id uint64, status publication.Status) error {
	return s.updatePublication(ctx, id, map[string]interface{}{"status": string(status)})
}

func (s *MySQL) SetDeliberationResult(ctx context.Context, id uint64, status publication.Status, deliberationID uint64) error {
	return s.updatePublication(ctx, id, map[string]interface{}{
		"status":          string(status),
		"deliberation_id": deliberationID,
	})
}

func (s *MySQL) MarkPublished(ctx context.Context, id uint64, at time.Time) error {
	return s.updatePublication(ctx, id, map[string]interface{}{
		"status":       string(publication.StatusPublished),
		"published_at": at,
	})
}

func (s *MySQL) updatePublication(ctx context.Context, id uint64, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&Publication{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: publication %d", ErrNotFound, id)
	}
	return nil
}

func (s *MySQL) AppendLog(ctx context.Context, pubID uint64, action, actor, notes string) error {
	row := PublicationLog{
		PublicationID: pubID,
		Action:        action,
		Actor:         actor,
		Notes:         notes,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *MySQL) ListQueue(ctx context.Context) ([]publication.Publication, error) {
	var rows []Publication
	err := s.db.WithContext(ctx).
		Where("status NOT IN ?", []string{
			string(publication.StatusPublished),
			string(publication.StatusRejected),
		}).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]publication.Publication, 0, len(rows))
	for _, row := range rows {
		out = append(out, *publicationFromRow(row))
	}
	return out, nil
}

func (s *MySQL) ListPendingReview(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).Model(&Publication{}).
		Where("status = ?", string(publication.StatusPendingReview)).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// HealthStats summarizes pipeline health for the monitoring endpoint.
type HealthStats struct {
	Deliberations         int64 `json:"deliberations"`
	AwaitingPublication   int64 `json:"awaiting_publication"`
	SecurityRejections24h int64 `json:"security_rejections_24h"`
}

func (s *MySQL) HealthStats(ctx context.Context) (HealthStats, error) {
	var stats HealthStats
	db := s.db.WithContext(ctx)

	if err := db.Model(&Deliberation{}).Count(&stats.Deliberations).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&Deliberation{}).
		Where("published_at IS NULL AND final_decision = ?", "publish").
		Count(&stats.AwaitingPublication).Error; err != nil {
		return stats, err
	}
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	if err := db.Model(&AgentVote{}).
		Where("agent_role = ? AND approve = ? AND created_at > ?", string(council.VetoRole), false, cutoff).
		Count(&stats.SecurityRejections24h).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

// FindUnreviewedPublished reports published rows with no deliberation
// reference outside the marked auto-approve path. Any hit is a review-bypass
// finding, not a normal state.
func (s *MySQL) FindUnreviewedPublished(ctx context.Context) ([]publication.Publication, error) {
	var rows []Publication
	err := s.db.WithContext(ctx).
		Where("status = ? AND deliberation_id IS NULL AND auto_approved = ?",
			string(publication.StatusPublished), false).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]publication.Publication, 0, len(rows))
	for _, row := range rows {
		out = append(out, *publicationFromRow(row))
	}
	return out, nil
}

func publicationFromRow(row Publication) *publication.Publication {
	var targets []string
	if row.PublishTargets != "" {
		_ = json.Unmarshal([]byte(row.PublishTargets), &targets)
	}
	return &publication.Publication{
		ID:             row.ID,
		Title:          row.Title,
		Content:        row.Content,
		Category:       row.Category,
		Status:         publication.Status(row.Status),
		DeliberationID: row.DeliberationID,
		Targets:        targets,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		PublishedAt:    row.PublishedAt,
	}
}
