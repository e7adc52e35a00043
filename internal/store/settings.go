package store

import (
	"fmt"
	"strconv"
)

// Per-user preference keys. Values are encrypted at rest.
const (
	SettingCountry             = "country"
	SettingMessageLimit        = "message_limit"
	SettingNotificationState   = "notification_state"
	SettingContactOrder        = "contact_order"
	SettingContactOrderReverse = "contact_order_reverse"
)

const (
	DefaultMessageLimit        = 500
	DefaultNotificationState   = 1
	DefaultContactOrder        = "lastmsg"
	DefaultContactOrderReverse = "true"
)

// SetSetting encrypts and upserts one preference value.
func (s *Store) SetSetting(userID, key, value string) error {
	encrypted, err := s.crypter.Encrypt(value)
	if err != nil {
		return fmt.Errorf("encrypting setting %s: %w", key, err)
	}

	result, err := s.db.Exec(
		`UPDATE settings SET value = ? WHERE user_id = ? AND key = ?`,
		encrypted, userID, key)
	if err != nil {
		return fmt.Errorf("updating setting %s: %w", key, err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	} else if rows > 0 {
		return nil
	}

	if _, err := s.db.Exec(
		`INSERT INTO settings (user_id, key, value) VALUES (?, ?, ?)`,
		userID, key, encrypted); err != nil {
		return fmt.Errorf("inserting setting %s: %w", key, err)
	}
	return nil
}

// GetSetting returns the decrypted value of one preference. A missing row or
// an undecryptable value both report ok=false; callers fall back to defaults.
func (s *Store) GetSetting(userID, key string) (string, bool) {
	var encrypted string
	err := s.db.Get(&encrypted,
		`SELECT value FROM settings WHERE user_id = ? AND key = ?`, userID, key)
	if err != nil {
		return "", false
	}

	value, err := s.crypter.Decrypt(encrypted)
	if err != nil {
		return "", false
	}
	return value, true
}

// Country returns the configured country, ok=false when unset.
func (s *Store) Country(userID string) (string, bool) {
	return s.GetSetting(userID, SettingCountry)
}

// MessageLimit returns how many transcript messages a conversation fetch may
// return.
func (s *Store) MessageLimit(userID string) int {
	value, ok := s.GetSetting(userID, SettingMessageLimit)
	if !ok {
		return DefaultMessageLimit
	}
	limit, err := strconv.Atoi(value)
	if err != nil {
		return DefaultMessageLimit
	}
	return limit
}

func (s *Store) NotificationState(userID string) int {
	value, ok := s.GetSetting(userID, SettingNotificationState)
	if !ok {
		return DefaultNotificationState
	}
	state, err := strconv.Atoi(value)
	if err != nil {
		return DefaultNotificationState
	}
	return state
}

func (s *Store) ContactOrder(userID string) string {
	value, ok := s.GetSetting(userID, SettingContactOrder)
	if !ok {
		return DefaultContactOrder
	}
	return value
}

func (s *Store) ContactOrderReverse(userID string) string {
	value, ok := s.GetSetting(userID, SettingContactOrderReverse)
	if !ok {
		return DefaultContactOrderReverse
	}
	return value
}
