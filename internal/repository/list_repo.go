package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"listify/internal/database"
	"listify/internal/models"
)

var (
	ErrListNotFound = errors.New("list not found")
	ErrItemNotFound = errors.New("item not found")
)

// ListRepository handles all persistence for lists and their items.
// item_count on lists is never incremented in place; every item write
// recomputes it from the live row count inside the same transaction.
type ListRepository struct {
	db *database.DB
}

func NewListRepository(db *database.DB) *ListRepository {
	return &ListRepository{db: db}
}

const itemColumns = `id, list_id, item_name, category, quantity, notes, explanation,
	status, source_type, completed_at, extracted_at, metadata`

// CreateList creates a list and its initial items in one transaction.
// Either everything is persisted or nothing is.
func (r *ListRepository) CreateList(ctx context.Context, name, description string, items []models.ListItem) (*models.ListWithItems, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	listID, err := tx.ExecReturningID(ctx,
		"INSERT INTO lists (name, description) VALUES (?, ?)",
		name, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}

	for _, item := range items {
		if _, err := insertItem(ctx, tx, listID, item); err != nil {
			return nil, fmt.Errorf("failed to insert item: %w", err)
		}
	}

	if err := recomputeItemCount(ctx, tx, listID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return r.GetList(ctx, listID)
}

// AppendItems adds items to an existing list and refreshes its count.
func (r *ListRepository) AppendItems(ctx context.Context, listID int64, items []models.ListItem) (*models.ListWithItems, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM lists WHERE id = ?", listID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check list: %w", err)
	}

	for _, item := range items {
		if _, err := insertItem(ctx, tx, listID, item); err != nil {
			return nil, fmt.Errorf("failed to insert item: %w", err)
		}
	}

	if err := recomputeItemCount(ctx, tx, listID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return r.GetList(ctx, listID)
}

// GetList returns a list and its items in insertion order.
func (r *ListRepository) GetList(ctx context.Context, id int64) (*models.ListWithItems, error) {
	var list models.List
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, item_count, created_at, updated_at FROM lists WHERE id = ?",
		id).Scan(&list.ID, &list.Name, &list.Description, &list.ItemCount, &list.CreatedAt, &list.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM list_items WHERE list_id = ? ORDER BY extracted_at ASC, id ASC",
		id)
	if err != nil {
		return nil, fmt.Errorf("failed to get list items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}

	return &models.ListWithItems{List: list, Items: items}, nil
}

// GetLists returns lists newest first. item_count is reported from the
// live row count so stale denormalized values can never surface.
func (r *ListRepository) GetLists(ctx context.Context, limit int) ([]models.List, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.name, l.description,
			(SELECT COUNT(*) FROM list_items i WHERE i.list_id = l.id),
			l.created_at, l.updated_at
		FROM lists l
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get lists: %w", err)
	}
	defer rows.Close()

	lists := []models.List{}
	for rows.Next() {
		var list models.List
		if err := rows.Scan(&list.ID, &list.Name, &list.Description, &list.ItemCount, &list.CreatedAt, &list.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

// UpdateItem applies a partial update. Only the fields in ItemUpdate are
// mutable; a status change sets or clears completed_at in the same write.
// Re-setting the current status succeeds without touching completed_at.
func (r *ListRepository) UpdateItem(ctx context.Context, id int64, upd models.ItemUpdate) (*models.ListItem, error) {
	var currentStatus models.ItemStatus
	err := r.db.QueryRowContext(ctx, "SELECT status FROM list_items WHERE id = ?", id).Scan(&currentStatus)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check item: %w", err)
	}

	var set []string
	var args []interface{}

	if upd.Name != nil {
		set = append(set, "item_name = ?")
		args = append(args, strings.TrimSpace(*upd.Name))
	}
	if upd.Category != nil {
		set = append(set, "category = ?")
		args = append(args, *upd.Category)
	}
	if upd.Quantity != nil {
		set = append(set, "quantity = ?")
		args = append(args, *upd.Quantity)
	}
	if upd.Notes != nil {
		set = append(set, "notes = ?")
		args = append(args, *upd.Notes)
	}
	if upd.Status != nil && *upd.Status != currentStatus {
		set = append(set, "status = ?")
		args = append(args, string(*upd.Status))
		if *upd.Status == models.StatusCompleted {
			set = append(set, "completed_at = CURRENT_TIMESTAMP")
		} else {
			set = append(set, "completed_at = NULL")
		}
	}

	if len(set) > 0 {
		args = append(args, id)
		query := "UPDATE list_items SET " + strings.Join(set, ", ") + " WHERE id = ?"
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to update item: %w", err)
		}
	}

	return r.getItem(ctx, id)
}

func (r *ListRepository) getItem(ctx context.Context, id int64) (*models.ListItem, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM list_items WHERE id = ?", id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// DeleteItem removes one item and refreshes its parent list's count.
func (r *ListRepository) DeleteItem(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var listID int64
	err = tx.QueryRowContext(ctx, "SELECT list_id FROM list_items WHERE id = ?", id).Scan(&listID)
	if err == sql.ErrNoRows {
		return ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check item: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM list_items WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if err := recomputeItemCount(ctx, tx, listID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteList removes a list and all of its items. Items are deleted
// explicitly rather than relying on the cascade so the behavior holds
// even when a backend has foreign keys disabled.
func (r *ListRepository) DeleteList(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM list_items WHERE list_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete list items: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM lists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrListNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Search finds items whose name, category or notes contain the query,
// case-insensitively, across all lists. Newest extractions first.
func (r *ListRepository) Search(ctx context.Context, query string, limit int) ([]models.ListItem, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+itemColumns+` FROM list_items
		WHERE LOWER(item_name) LIKE ?
			OR LOWER(category) LIKE ?
			OR LOWER(COALESCE(notes, '')) LIKE ?
		ORDER BY extracted_at DESC, id DESC
		LIMIT ?`,
		pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// Statistics aggregates counts over all lists and items.
func (r *ListRepository) Statistics(ctx context.Context) (*models.Statistics, error) {
	stats := &models.Statistics{Categories: []models.CategoryCount{}}

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lists").Scan(&stats.TotalLists)
	if err != nil {
		return nil, fmt.Errorf("failed to count lists: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0)
		FROM list_items`).Scan(&stats.TotalItems, &stats.PendingItems, &stats.CompletedItems)
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT category, COUNT(*) FROM list_items GROUP BY category ORDER BY COUNT(*) DESC, category ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cc models.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.Categories = append(stats.Categories, cc)
	}
	return stats, rows.Err()
}

func insertItem(ctx context.Context, tx database.DBTX, listID int64, item models.ListItem) (int64, error) {
	status := item.Status
	if status == "" {
		status = models.StatusPending
	}
	sourceType := item.SourceType
	if sourceType == "" {
		sourceType = models.SourceManual
	}
	category := item.Category
	if category == "" {
		category = "other"
	}

	return tx.ExecReturningID(ctx,
		`INSERT INTO list_items (list_id, item_name, category, quantity, notes, explanation, status, source_type, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listID, item.Name, category, item.Quantity, item.Notes, item.Explanation,
		string(status), string(sourceType), item.Metadata)
}

func recomputeItemCount(ctx context.Context, tx database.DBTX, listID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE lists
		SET item_count = (SELECT COUNT(*) FROM list_items WHERE list_id = ?),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		listID, listID)
	if err != nil {
		return fmt.Errorf("failed to update item count: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*models.ListItem, error) {
	var item models.ListItem
	var quantity, notes, explanation, metadata sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&item.ID, &item.ListID, &item.Name, &item.Category,
		&quantity, &notes, &explanation,
		&item.Status, &item.SourceType, &completedAt, &item.ExtractedAt, &metadata)
	if err != nil {
		return nil, err
	}

	item.Quantity = quantity.String
	item.Notes = notes.String
	item.Explanation = explanation.String
	item.Metadata = metadata.String
	if completedAt.Valid {
		t := completedAt.Time
		item.CompletedAt = &t
	}
	return &item, nil
}

func scanItems(rows *sql.Rows) ([]models.ListItem, error) {
	items := []models.ListItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
