package store

import (
	"fmt"

	"github.com/smsvault/smsvault/internal/model"
)

// Enqueue stores a composed message for device pickup and returns its queue id.
func (s *Store) Enqueue(userID, address, body string) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO send_queue (user_id, sms_address, sms_msg) VALUES (?, ?, ?)`,
		userID, address, body)
	if err != nil {
		return 0, fmt.Errorf("enqueueing message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting queue id: %w", err)
	}
	return id, nil
}

// QueuedForUser lists pending outbound messages in insertion order.
func (s *Store) QueuedForUser(userID string) ([]model.QueuedMessage, error) {
	messages := []model.QueuedMessage{}
	err := s.db.Select(&messages,
		`SELECT id, sms_address, sms_msg FROM send_queue WHERE user_id = ? ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing send queue: %w", err)
	}
	return messages, nil
}

// Acknowledge drops one queue entry once the device confirms the send.
// Acknowledging an already-gone entry is a no-op, so clients may retry after
// a dropped response.
func (s *Store) Acknowledge(userID string, id int64) error {
	_, err := s.db.Exec(
		`DELETE FROM send_queue WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("acknowledging queue entry: %w", err)
	}
	return nil
}

// ClearQueue drops every pending entry of a user.
func (s *Store) ClearQueue(userID string) error {
	_, err := s.db.Exec(
		`DELETE FROM send_queue WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("clearing send queue: %w", err)
	}
	return nil
}
