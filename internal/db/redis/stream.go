package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/finder/internal/db"
)

// XAdd appends an entry with an auto-generated ID and returns that ID.
func (s *Store) XAdd(ctx context.Context, stream string, fields map[string]string) (string, error) {
	cmd := s.b().Xadd().Key(stream).Id("*").FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	id, err := s.do(ctx, cmd.Build()).ToString()
	if err != nil {
		return "", &db.Error{Op: db.OpXAdd, Err: err}
	}
	return id, nil
}

// XGroupCreate creates a consumer group starting at the beginning of the stream.
// An existing group is not an error.
func (s *Store) XGroupCreate(ctx context.Context, stream, group string) error {
	cmd := s.b().XgroupCreate().Key(stream).Group(group).Id("0").Mkstream().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "BUSYGROUP") {
			return nil
		}
		return &db.Error{Op: db.OpXGroup, Err: err}
	}
	return nil
}

// XReadGroup reads up to count entries for consumer, blocking up to block for new ones.
func (s *Store) XReadGroup(
	ctx context.Context, stream, group, consumer, id string, count int, block time.Duration,
) ([]db.StreamEntry, error) {
	cmd := s.b().Xreadgroup().Group(group, consumer).
		Count(int64(count)).
		Block(block.Milliseconds()).
		Streams().Key(stream).Id(id).
		Build()

	res, err := s.do(ctx, cmd).AsXRead()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, &db.Error{Op: db.OpXReadGroup, Err: err}
	}

	raw := res[stream]
	entries := make([]db.StreamEntry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, db.StreamEntry{ID: e.ID, Fields: e.FieldValues})
	}
	return entries, nil
}

// XAck acknowledges processed entries.
func (s *Store) XAck(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	cmd := s.b().Xack().Key(stream).Group(group).Id(ids...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpXAck, Err: err}
	}
	return nil
}
