package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const legacyReadStatePrefix = "lastReadDate-"

// MaxReadAcross returns the newest read-state timestamp over every
// conversation of a user, 0 when none is tracked.
func (s *Store) MaxReadAcross(userID string) (int64, error) {
	var max sql.NullInt64
	err := s.db.Get(&max,
		`SELECT MAX(int_date) FROM read_state WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("fetching max read state: %w", err)
	}
	return max.Int64, nil
}

// MaxReadFor returns the read-state timestamp of one conversation, 0 when
// none is tracked.
func (s *Store) MaxReadFor(userID, phoneNumber string) (int64, error) {
	var max sql.NullInt64
	err := s.db.Get(&max,
		`SELECT MAX(int_date) FROM read_state WHERE user_id = ? AND phone_number = ?`,
		userID, phoneNumber)
	if err != nil {
		return 0, fmt.Errorf("fetching read state: %w", err)
	}
	return max.Int64, nil
}

// SetLast replaces the read state of one conversation. Delete plus insert run
// as a single unit so concurrent writers never observe a partial state.
func (s *Store) SetLast(userID, phoneNumber string, lastDate int64) error {
	return s.withTx(func(tx *sqlx.Tx) error {
		return setLastTx(tx, userID, phoneNumber, lastDate)
	})
}

func setLastTx(tx *sqlx.Tx, userID, phoneNumber string, lastDate int64) error {
	if _, err := tx.Exec(
		`DELETE FROM read_state WHERE user_id = ? AND phone_number = ?`,
		userID, phoneNumber); err != nil {
		return fmt.Errorf("clearing read state: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO read_state (user_id, phone_number, int_date) VALUES (?, ?, ?)`,
		userID, phoneNumber, lastDate); err != nil {
		return fmt.Errorf("inserting read state: %w", err)
	}
	return nil
}

// MigrateLegacyReadStates imports read-state rows old clients wrote into the
// generic user_data table, then deletes the source rows. Safe to run on every
// boot; with no matching rows left it is a no-op.
func (s *Store) MigrateLegacyReadStates() (int, error) {
	rows, err := s.db.Queryx(
		`SELECT user_id, datakey, datavalue FROM user_data WHERE datakey LIKE ?`,
		legacyReadStatePrefix+"%")
	if err != nil {
		return 0, fmt.Errorf("listing legacy read states: %w", err)
	}

	type legacyRow struct {
		userID      string
		phoneNumber string
		lastDate    int64
	}
	imported := []legacyRow{}
	for rows.Next() {
		var userID, key string
		var value int64
		if err := rows.Scan(&userID, &key, &value); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning legacy read state: %w", err)
		}
		imported = append(imported, legacyRow{
			userID:      userID,
			phoneNumber: strings.TrimPrefix(key, legacyReadStatePrefix),
			lastDate:    value,
		})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	err = s.withTx(func(tx *sqlx.Tx) error {
		for _, row := range imported {
			if err := setLastTx(tx, row.userID, row.phoneNumber, row.lastDate); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(
			`DELETE FROM user_data WHERE datakey LIKE ?`,
			legacyReadStatePrefix+"%"); err != nil {
			return fmt.Errorf("deleting legacy read states: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(imported), nil
}
