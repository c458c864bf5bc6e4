package sync

import (
	"context"
	"time"

	"schedule-board/core/logger"
	"schedule-board/modules/schedule/entity"
	"schedule-board/modules/schedule/feed"
	"schedule-board/modules/schedule/repository"

	"github.com/google/uuid"
)

// PostgresRemote is the production RemoteStore: writes land in Postgres and
// each committed write is announced on the change feed so every subscribed
// session (including the writer's own) converges.
type PostgresRemote struct {
	repo *repository.ScheduleRepository
	pub  feed.Publisher
}

func NewPostgresRemote(repo *repository.ScheduleRepository, pub feed.Publisher) *PostgresRemote {
	return &PostgresRemote{repo: repo, pub: pub}
}

func (r *PostgresRemote) ListWeek(ctx context.Context, organizationID uuid.UUID, weekStartDate string) ([]entity.ScheduleEntry, error) {
	return r.repo.ListWeek(ctx, organizationID, weekStartDate)
}

func (r *PostgresRemote) Insert(ctx context.Context, entry *entity.ScheduleEntry) (*entity.ScheduleEntry, error) {
	persisted := *entry
	persisted.ID = uuid.NewString()
	now := time.Now()
	persisted.CreatedAt = now
	persisted.UpdatedAt = now

	confirmed, err := r.repo.Insert(ctx, &persisted)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, confirmed.OrganizationID, feed.Event{Kind: feed.KindInsert, Record: confirmed})
	return confirmed, nil
}

func (r *PostgresRemote) UpdateByID(ctx context.Context, id string, entry *entity.ScheduleEntry, expectedVersion int) (*entity.ScheduleEntry, error) {
	old, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := r.repo.UpdateByID(ctx, id, entry, expectedVersion)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, updated.OrganizationID, feed.Event{Kind: feed.KindUpdate, Record: updated, OldRecord: old})
	return updated, nil
}

func (r *PostgresRemote) DeleteByID(ctx context.Context, id string) error {
	old, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := r.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	r.publish(ctx, old.OrganizationID, feed.Event{Kind: feed.KindDelete, OldRecord: old})
	return nil
}

// publish failures do not fail the write; subscribers reconverge on their
// next bootstrap load.
func (r *PostgresRemote) publish(ctx context.Context, organizationID uuid.UUID, ev feed.Event) {
	if r.pub == nil {
		return
	}
	if err := r.pub.Publish(ctx, organizationID, ev); err != nil {
		logger.Warn("PostgresRemote:Publish:Error", "error", err, "kind", ev.Kind)
	}
}
