package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"listify/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Lists      []ListBackup     `json:"lists"`
	Items      []ListItemBackup `json:"items"`
}

// ListBackup represents a list record for backup
type ListBackup struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListItemBackup represents a list item record for backup
type ListItemBackup struct {
	ID          int64      `json:"id"`
	ListID      int64      `json:"list_id"`
	ItemName    string     `json:"item_name"`
	Category    string     `json:"category"`
	Quantity    string     `json:"quantity"`
	Notes       string     `json:"notes"`
	Explanation string     `json:"explanation"`
	Status      string     `json:"status"`
	SourceType  string     `json:"source_type"`
	CompletedAt *time.Time `json:"completed_at"`
	ExtractedAt time.Time  `json:"extracted_at"`
	Metadata    string     `json:"metadata"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	if err := s.exportLists(backup); err != nil {
		return fmt.Errorf("failed to export lists: %w", err)
	}

	if err := s.exportItems(backup); err != nil {
		return fmt.Errorf("failed to export items: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d lists, %d items", len(backup.Lists), len(backup.Items))

	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup reader
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	// Lists first so item foreign keys resolve
	if err := s.importLists(backup.Lists); err != nil {
		return fmt.Errorf("failed to import lists: %w", err)
	}

	if err := s.importItems(backup.Items); err != nil {
		return fmt.Errorf("failed to import items: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

func (s *BackupService) exportLists(backup *BackupData) error {
	rows, err := s.db.Query("SELECT id, name, description, item_count, created_at, updated_at FROM lists ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l ListBackup
		var description sql.NullString
		if err := rows.Scan(&l.ID, &l.Name, &description, &l.ItemCount, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return err
		}
		l.Description = description.String
		backup.Lists = append(backup.Lists, l)
	}
	return rows.Err()
}

func (s *BackupService) exportItems(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT id, list_id, item_name, category, quantity, notes, explanation,
		status, source_type, completed_at, extracted_at, metadata
		FROM list_items ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it ListItemBackup
		var quantity, notes, explanation, metadata sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&it.ID, &it.ListID, &it.ItemName, &it.Category,
			&quantity, &notes, &explanation, &it.Status, &it.SourceType,
			&completedAt, &it.ExtractedAt, &metadata); err != nil {
			return err
		}
		it.Quantity = quantity.String
		it.Notes = notes.String
		it.Explanation = explanation.String
		it.Metadata = metadata.String
		if completedAt.Valid {
			t := completedAt.Time
			it.CompletedAt = &t
		}
		backup.Items = append(backup.Items, it)
	}
	return rows.Err()
}

func (s *BackupService) importLists(lists []ListBackup) error {
	for _, l := range lists {
		_, err := s.db.Exec(`INSERT INTO lists (id, name, description, item_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			l.ID, l.Name, l.Description, l.ItemCount, l.CreatedAt, l.UpdatedAt)
		if err != nil {
			return fmt.Errorf("list %d: %w", l.ID, err)
		}
	}
	log.Printf("Imported %d lists", len(lists))
	return nil
}

func (s *BackupService) importItems(items []ListItemBackup) error {
	for _, it := range items {
		_, err := s.db.Exec(`INSERT INTO list_items (id, list_id, item_name, category, quantity, notes,
			explanation, status, source_type, completed_at, extracted_at, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.ListID, it.ItemName, it.Category, it.Quantity, it.Notes,
			it.Explanation, it.Status, it.SourceType, it.CompletedAt, it.ExtractedAt, it.Metadata)
		if err != nil {
			return fmt.Errorf("item %d: %w", it.ID, err)
		}
	}
	log.Printf("Imported %d items", len(items))
	return nil
}
