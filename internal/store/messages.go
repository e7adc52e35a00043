package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/smsvault/smsvault/internal/model"
	"github.com/smsvault/smsvault/internal/phone"
)

// ListIDsByMailbox groups every stored message id by mailbox name,
// deduplicated within a mailbox. Rows with unknown mailbox codes are dropped.
func (s *Store) ListIDsByMailbox(userID string) (map[string][]int64, error) {
	rows, err := s.db.Queryx(
		`SELECT sms_id, sms_mailbox FROM messages WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing message ids: %w", err)
	}
	defer rows.Close()

	idList := map[string][]int64{}
	seen := map[string]map[int64]bool{}
	for rows.Next() {
		var smsID int64
		var mailboxCode int
		if err := rows.Scan(&smsID, &mailboxCode); err != nil {
			return nil, fmt.Errorf("scanning message id: %w", err)
		}

		mbox, ok := model.MailboxFromCode(mailboxCode)
		if !ok {
			continue
		}
		name := mbox.String()
		if seen[name] == nil {
			seen[name] = map[int64]bool{}
		}
		if seen[name][smsID] {
			continue
		}
		seen[name][smsID] = true
		idList[name] = append(idList[name], smsID)
	}
	return idList, rows.Err()
}

// MaxTimestamp returns the newest message timestamp for a user, 0 when the
// ledger is empty.
func (s *Store) MaxTimestamp(userID string) (int64, error) {
	var max sql.NullInt64
	err := s.db.Get(&max,
		`SELECT MAX(sms_date) FROM messages WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("fetching max timestamp: %w", err)
	}
	return max.Int64, nil
}

// DistinctAddresses returns every raw address with visible traffic.
func (s *Store) DistinctAddresses(userID string) ([]string, error) {
	query, args, err := sqlx.In(
		`SELECT DISTINCT sms_address FROM messages
		 WHERE user_id = ? AND sms_mailbox IN (?)`,
		userID, model.VisibleMailboxCodes)
	if err != nil {
		return nil, fmt.Errorf("building address query: %w", err)
	}

	addresses := []string{}
	if err := s.db.Select(&addresses, query, args...); err != nil {
		return nil, fmt.Errorf("listing addresses: %w", err)
	}
	return addresses, nil
}

// AddressesGroupedByCanonical returns the raw-address variants (with
// occurrence counts) whose canonical form matches the given number. An exact
// raw-string hit against the grouping wins before the canonicalized lookup.
func (s *Store) AddressesGroupedByCanonical(userID, phoneNumber, country string) (map[string]int, error) {
	query, args, err := sqlx.In(
		`SELECT sms_address FROM messages
		 WHERE user_id = ? AND sms_mailbox IN (?)`,
		userID, model.VisibleMailboxCodes)
	if err != nil {
		return nil, fmt.Errorf("building address query: %w", err)
	}

	rows, err := s.db.Queryx(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing addresses: %w", err)
	}
	defer rows.Close()

	grouped := map[string]map[string]int{}
	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return nil, fmt.Errorf("scanning address: %w", err)
		}
		canonical := phone.Canonicalize(country, address)
		if grouped[canonical] == nil {
			grouped[canonical] = map[string]int{}
		}
		grouped[canonical][address]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if variants, ok := grouped[phoneNumber]; ok {
		return variants, nil
	}
	if variants, ok := grouped[phone.Canonicalize(country, phoneNumber)]; ok {
		return variants, nil
	}
	return map[string]int{}, nil
}

// ConversationSince unions the visible messages of every raw-address variant
// of a conversation, keyed by timestamp. Two variants colliding on the same
// timestamp keep the later-processed one; timestamps are assumed unique per
// conversation in practice.
func (s *Store) ConversationSince(userID, phoneNumber, country string, since int64) (map[int64]model.ConversationMessage, error) {
	variants, err := s.AddressesGroupedByCanonical(userID, phoneNumber, country)
	if err != nil {
		return nil, err
	}

	messages := map[int64]model.ConversationMessage{}
	for address := range variants {
		query, args, err := sqlx.In(
			`SELECT sms_date, sms_msg, sms_type FROM messages
			 WHERE user_id = ? AND sms_address = ? AND sms_mailbox IN (?) AND sms_date > ?`,
			userID, address, model.VisibleMailboxCodes, since)
		if err != nil {
			return nil, fmt.Errorf("building conversation query: %w", err)
		}

		rows, err := s.db.Queryx(query, args...)
		if err != nil {
			return nil, fmt.Errorf("fetching conversation: %w", err)
		}
		for rows.Next() {
			var date int64
			var msg model.ConversationMessage
			if err := rows.Scan(&date, &msg.Body, &msg.Type); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning conversation row: %w", err)
			}
			messages[date] = msg
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return messages, nil
}

// MessageCount counts every stored row for a user, drafts included.
func (s *Store) MessageCount(userID string) (int, error) {
	var count int
	err := s.db.Get(&count,
		`SELECT COUNT(*) FROM messages WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

// CountForCanonical sums visible message counts across every raw-address
// variant of a conversation.
func (s *Store) CountForCanonical(userID, phoneNumber, country string) (int, error) {
	variants, err := s.AddressesGroupedByCanonical(userID, phoneNumber, country)
	if err != nil {
		return 0, err
	}

	total := 0
	for address := range variants {
		query, args, err := sqlx.In(
			`SELECT COUNT(*) FROM messages
			 WHERE user_id = ? AND sms_address = ? AND sms_mailbox IN (?)`,
			userID, address, model.VisibleMailboxCodes)
		if err != nil {
			return 0, fmt.Errorf("building count query: %w", err)
		}
		var count int
		if err := s.db.Get(&count, query, args...); err != nil {
			return 0, fmt.Errorf("counting conversation messages: %w", err)
		}
		total += count
	}
	return total, nil
}

// Page returns up to limit messages newer than start, ascending by timestamp.
// The cursor is the last timestamp seen, so repeated polling is safe while
// rows are inserted concurrently.
func (s *Store) Page(userID string, start int64, limit int) (map[int64]model.PagedMessage, error) {
	rows, err := s.db.Queryx(
		`SELECT * FROM messages
		 WHERE user_id = ? AND sms_date > ?
		 ORDER BY sms_date
		 LIMIT ?`, userID, start, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching message page: %w", err)
	}
	defer rows.Close()

	messages := map[int64]model.PagedMessage{}
	for rows.Next() {
		var row model.Message
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scanning page row: %w", err)
		}
		messages[row.Date] = model.PagedMessage{
			Address: row.Address,
			Mailbox: row.Mailbox,
			Body:    row.Body,
			Type:    row.Type,
		}
	}
	return messages, rows.Err()
}

// LastTimestampPerAddress returns the newest visible timestamp per
// whitespace-stripped raw address, newest conversations first in the scan.
// Addresses differing only by embedded spaces fold together; canonical
// grouping is left to the caller.
func (s *Store) LastTimestampPerAddress(userID string) (map[string]int64, error) {
	query, args, err := sqlx.In(
		`SELECT MAX(sms_date) AS mx, sms_address FROM messages
		 WHERE user_id = ? AND sms_mailbox IN (?)
		 GROUP BY sms_address
		 ORDER BY mx DESC`,
		userID, model.VisibleMailboxCodes)
	if err != nil {
		return nil, fmt.Errorf("building last-timestamp query: %w", err)
	}

	rows, err := s.db.Queryx(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching last timestamps: %w", err)
	}
	defer rows.Close()

	phoneList := map[string]int64{}
	for rows.Next() {
		var max int64
		var address string
		if err := rows.Scan(&max, &address); err != nil {
			return nil, fmt.Errorf("scanning last-timestamp row: %w", err)
		}
		stripped := stripSpaces(address)
		if existing, ok := phoneList[stripped]; !ok || existing < max {
			phoneList[stripped] = max
		}
	}
	return phoneList, rows.Err()
}

// UnreadCountsSince reports, per whitespace-stripped address, how many visible
// messages arrived after since — but only for conversations whose tracked
// read state is still older than since. The double gate keeps conversations
// acknowledged through another sync path from being re-flagged.
func (s *Store) UnreadCountsSince(userID string, since int64) (map[string]int, error) {
	query, args, err := sqlx.In(
		`SELECT COUNT(sms_date) AS ct, sms_address FROM messages
		 WHERE user_id = ? AND sms_mailbox IN (?) AND sms_date > ?
		 GROUP BY sms_address`,
		userID, model.VisibleMailboxCodes, since)
	if err != nil {
		return nil, fmt.Errorf("building unread query: %w", err)
	}

	rows, err := s.db.Queryx(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching unread counts: %w", err)
	}
	defer rows.Close()

	type addressCount struct {
		address string
		count   int
	}
	counts := []addressCount{}
	for rows.Next() {
		var c addressCount
		if err := rows.Scan(&c.count, &c.address); err != nil {
			return nil, fmt.Errorf("scanning unread row: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	phoneList := map[string]int{}
	for _, c := range counts {
		stripped := stripSpaces(c.address)
		lastRead, err := s.MaxReadFor(userID, stripped)
		if err != nil {
			return nil, err
		}
		if lastRead < since {
			phoneList[stripped] += c.count
		}
	}
	return phoneList, nil
}

// Ingest writes a validated batch in one transaction. With fullReplace the
// user's ledger is wiped first; in merge mode each row replaces any existing
// row with the same client id, which makes a device resend idempotent.
func (s *Store) Ingest(userID string, batch []model.MessageInput, fullReplace bool) error {
	return s.withTx(func(tx *sqlx.Tx) error {
		if fullReplace {
			if _, err := tx.Exec(
				`DELETE FROM messages WHERE user_id = ?`, userID); err != nil {
				return fmt.Errorf("purging messages: %w", err)
			}
		}

		now := time.Now().UTC()
		for _, sms := range batch {
			if !fullReplace {
				if _, err := tx.Exec(
					`DELETE FROM messages WHERE user_id = ? AND sms_id = ?`,
					userID, sms.ID); err != nil {
					return fmt.Errorf("replacing message %d: %w", sms.ID, err)
				}
			}

			if _, err := tx.Exec(
				`INSERT INTO messages
				 (user_id, sms_id, sms_address, sms_date, sms_msg, sms_mailbox, sms_type, sms_flags, added, lastmodified)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				userID, sms.ID, sms.Address, sms.Date, sms.Body,
				sms.Mailbox, sms.Type, sms.PackedFlags(), now, now); err != nil {
				return fmt.Errorf("inserting message %d: %w", sms.ID, err)
			}
		}
		return nil
	})
}

// RemoveAll wipes the whole ledger of one user.
func (s *Store) RemoveAll(userID string) error {
	return s.withTx(func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(
			`DELETE FROM messages WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("removing messages: %w", err)
		}
		return nil
	})
}

// RemoveByRawAddress deletes the rows of one exact raw address string.
// Variant spellings of the same canonical number are left alone; callers
// wanting a canonical-group delete resolve the group first and call this once
// per member.
func (s *Store) RemoveByRawAddress(userID, address string) error {
	return s.withTx(func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(
			`DELETE FROM messages WHERE user_id = ? AND sms_address = ?`,
			userID, address); err != nil {
			return fmt.Errorf("removing messages for address: %w", err)
		}
		return nil
	})
}

// RemoveOne deletes a single message identified by exact raw address and
// timestamp.
func (s *Store) RemoveOne(userID, address string, date int64) error {
	return s.withTx(func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(
			`DELETE FROM messages WHERE user_id = ? AND sms_address = ? AND sms_date = ?`,
			userID, address, date); err != nil {
			return fmt.Errorf("removing message: %w", err)
		}
		return nil
	})
}

func stripSpaces(address string) string {
	return strings.ReplaceAll(address, " ", "")
}
