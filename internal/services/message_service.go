package services

import (
	"database/sql"

	"github.com/pvdmeer/babbel/internal/models"
)

// MessageServiceProvider defines the interface for the message log.
type MessageServiceProvider interface {
	Append(username, message string) error
	History() ([]models.ChatLine, error)
}

// MessageService provides access to the persisted chat history.
type MessageService struct {
	db *sql.DB
}

// NewMessageService creates a new MessageService.
func NewMessageService(db *sql.DB) *MessageService {
	return &MessageService{db: db}
}

// Append stores one chat line. The timestamp is assigned by the database.
func (s *MessageService) Append(username, message string) error {
	stmt, err := s.db.Prepare("INSERT INTO messages (username, message) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(username, message)
	return err
}

// History returns every persisted chat line in insertion order. Ordering is by
// row id, not timestamp, so same-second sends keep their send order.
func (s *MessageService) History() ([]models.ChatLine, error) {
	rows, err := s.db.Query("SELECT username, message, strftime('%H:%M:%S', created_at) FROM messages ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.ChatLine
	for rows.Next() {
		var line models.ChatLine
		if err := rows.Scan(&line.Username, &line.Message, &line.Time); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
