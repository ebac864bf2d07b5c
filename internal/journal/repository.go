package journal

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"grandpa/infrastructure"
	"grandpa/internal/database"
)

type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

func withAttachments(db *gorm.DB) *gorm.DB {
	return db.Preload("Attachments", func(db *gorm.DB) *gorm.DB {
		return db.Order("attachments.id")
	})
}

// GetOrCreate returns the entry for (profileID, day), creating an empty
// one when missing. A concurrent insert of the same day is resolved by
// reading the winner's row.
func (r *Repository) GetOrCreate(ctx context.Context, profileID uint, day string) (*database.DayEntry, error) {
	entry, err := r.find(ctx, profileID, day)
	if err == nil {
		return entry, nil
	}
	if !infrastructure.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	entry = &database.DayEntry{ProfileID: profileID, Day: day}
	err = infrastructure.TimeOperation(ctx, "journal.CreateEntry", func() error {
		return r.db.WithContext(ctx).Omit("Profile", "Attachments").Create(entry).Error
	})
	if err != nil {
		if !infrastructure.IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create entry: %w", err)
		}
		if entry, err = r.find(ctx, profileID, day); err != nil {
			return nil, fmt.Errorf("failed to get entry: %w", err)
		}
		return entry, nil
	}
	entry.Attachments = []database.Attachment{}
	return entry, nil
}

func (r *Repository) find(ctx context.Context, profileID uint, day string) (*database.DayEntry, error) {
	var entry database.DayEntry
	err := withAttachments(r.db.WithContext(ctx)).
		Where("profile_id = ? AND day = ?", profileID, day).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Get returns the entry only when it belongs to profileID.
func (r *Repository) Get(ctx context.Context, profileID, entryID uint) (*database.DayEntry, error) {
	var entry database.DayEntry
	err := withAttachments(r.db.WithContext(ctx)).
		Where("id = ? AND profile_id = ?", entryID, profileID).
		First(&entry).Error
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return nil, infrastructure.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return &entry, nil
}

func (r *Repository) UpdateNote(ctx context.Context, entry *database.DayEntry, note string) error {
	if err := r.db.WithContext(ctx).Model(entry).Update("note", note).Error; err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return nil
}

func (r *Repository) UpdateSummary(ctx context.Context, entry *database.DayEntry, text string) error {
	if err := r.db.WithContext(ctx).Model(entry).Update("summary_text", text).Error; err != nil {
		return fmt.Errorf("failed to update summary: %w", err)
	}
	return nil
}

// Recent returns the newest entries of a profile, newest day first,
// together with their attachment counts.
func (r *Repository) Recent(ctx context.Context, profileID uint, limit int) ([]database.DayEntry, map[uint]int, error) {
	var entries []database.DayEntry
	err := infrastructure.TimeOperation(ctx, "journal.Recent", func() error {
		return r.db.WithContext(ctx).
			Where("profile_id = ?", profileID).
			Order("day DESC").
			Limit(limit).
			Find(&entries).Error
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list entries: %w", err)
	}

	counts := make(map[uint]int, len(entries))
	if len(entries) == 0 {
		return entries, counts, nil
	}

	ids := make([]uint, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	var rows []struct {
		DayEntryID uint
		Total      int
	}
	err = r.db.WithContext(ctx).
		Model(&database.Attachment{}).
		Select("day_entry_id, COUNT(*) AS total").
		Where("day_entry_id IN ?", ids).
		Group("day_entry_id").
		Scan(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count attachments: %w", err)
	}
	for _, row := range rows {
		counts[row.DayEntryID] = row.Total
	}
	return entries, counts, nil
}
