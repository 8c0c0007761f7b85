package db

import (
	"context"
	"fmt"
)

const topicColumns = `id, primary_keyword, supporting_keywords, status, selected_at, used_at`

// FindTopicByKeyword looks up a topic by primary keyword, case-insensitively.
// Returns nil when no row exists.
func (db *DB) FindTopicByKeyword(ctx context.Context, keyword string) (*Topic, error) {
	var t Topic
	err := db.pool.QueryRow(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE lower(primary_keyword) = lower($1)`,
		keyword,
	).Scan(&t.ID, &t.PrimaryKeyword, &t.SupportingKeywords, &t.Status, &t.SelectedAt, &t.UsedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find topic %q: %w", keyword, err)
	}
	return &t, nil
}

// CreateTopic inserts a topic. A concurrent insert of the same keyword
// surfaces as a *TopicClaimedError.
func (db *DB) CreateTopic(ctx context.Context, primary string, supporting []string, status string) (*Topic, error) {
	if supporting == nil {
		supporting = []string{}
	}
	var t Topic
	err := db.pool.QueryRow(ctx,
		`INSERT INTO topics (primary_keyword, supporting_keywords, status, selected_at, used_at)
		 VALUES ($1, $2, $3, NOW(), CASE WHEN $3 = 'used' THEN NOW() END)
		 RETURNING `+topicColumns,
		primary, supporting, status,
	).Scan(&t.ID, &t.PrimaryKeyword, &t.SupportingKeywords, &t.Status, &t.SelectedAt, &t.UsedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &TopicClaimedError{Keyword: primary}
		}
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}
	return &t, nil
}

// MarkTopicUsed transitions a topic to used.
func (db *DB) MarkTopicUsed(ctx context.Context, topicID int64) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE topics SET status = $1, used_at = NOW() WHERE id = $2`,
		TopicStatusUsed, topicID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark topic used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("topic not found: %d", topicID)
	}
	return nil
}
