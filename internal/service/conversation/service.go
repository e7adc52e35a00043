// Package conversation aggregates the message ledger, the contact directory
// and per-conversation read state into the peer-list, transcript and delta
// views clients poll.
package conversation

import (
	"context"
	"fmt"
	"sort"

	"github.com/smsvault/smsvault/internal/contacts"
	"github.com/smsvault/smsvault/internal/model"
	"github.com/smsvault/smsvault/internal/phone"
	"github.com/smsvault/smsvault/internal/store"
)

type Service struct {
	store    *store.Store
	provider contacts.Provider
}

func New(s *store.Store, provider contacts.Provider) *Service {
	if provider == nil {
		provider = contacts.NullProvider{}
	}
	return &Service{store: s, provider: provider}
}

// PeerList is the conversation overview clients compare against their own
// state.
type PeerList struct {
	PhoneList    map[string]int64  `json:"phonelist"`
	Contacts     map[string]string `json:"contacts"`
	LastRead     int64             `json:"lastRead"`
	LastMessage  int64             `json:"lastMessage"`
	Photos       map[string]string `json:"photos"`
	UIDs         map[string]string `json:"uids"`
	PhotoVersion int               `json:"photo_version"`
}

// Conversation is one merged transcript across every number variant of a
// contact identity.
type Conversation struct {
	Messages     map[int64]model.ConversationMessage `json:"conversation"`
	ContactName  string                              `json:"contactName"`
	PhoneNumbers []string                            `json:"phoneNumbers"`
	MessageCount int                                 `json:"msgCount"`
}

// NewMessages is the delta view of still-unread conversations.
type NewMessages struct {
	PhoneList map[string]int    `json:"phonelist"`
	Contacts  map[string]string `json:"contacts"`
	Photos    map[string]string `json:"photos"`
	UIDs      map[string]string `json:"uids"`
}

// snapshot builds the per-request directory value everything below threads
// through by parameter.
func (s *Service) snapshot(ctx context.Context, userID string) (*contacts.Directory, string, error) {
	country, _ := s.store.Country(userID)
	listing, err := s.provider.ListContacts(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("listing contacts: %w", err)
	}
	return contacts.Build(country, listing), country, nil
}

// RetrieveAllPeers lists every conversation peer with its newest timestamp
// and resolved display name.
func (s *Service) RetrieveAllPeers(ctx context.Context, userID string) (*PeerList, error) {
	directory, _, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	phoneList, err := s.store.LastTimestampPerAddress(userID)
	if err != nil {
		return nil, err
	}

	resolved := map[string]string{}
	for number := range phoneList {
		resolved[number] = directory.Resolve(number)
	}

	lastRead, err := s.store.MaxReadAcross(userID)
	if err != nil {
		return nil, err
	}
	lastMessage, err := s.store.MaxTimestamp(userID)
	if err != nil {
		return nil, err
	}

	return &PeerList{
		PhoneList:    phoneList,
		Contacts:     resolved,
		LastRead:     lastRead,
		LastMessage:  lastMessage,
		Photos:       directory.Photos,
		UIDs:         directory.UIDs,
		PhotoVersion: 2,
	}, nil
}

// GetConversation is the composite read clients call: fetch the transcript,
// then mark every contributing number read up to the newest returned
// timestamp. The two steps stay separable for callers that only want one.
func (s *Service) GetConversation(ctx context.Context, userID, phoneNumber string, since int64) (*Conversation, error) {
	conv, err := s.FetchConversation(ctx, userID, phoneNumber, since)
	if err != nil {
		return nil, err
	}

	if len(conv.Messages) > 0 {
		maxDate := int64(0)
		for date := range conv.Messages {
			if date > maxDate {
				maxDate = date
			}
		}
		if err := s.MarkConversationRead(userID, conv.PhoneNumbers, maxDate); err != nil {
			return nil, err
		}
	}
	return conv, nil
}

// FetchConversation merges the transcript of every number variant belonging
// to the resolved contact identity, truncated to the newest messageLimit
// entries. It performs no writes.
func (s *Service) FetchConversation(ctx context.Context, userID, phoneNumber string, since int64) (*Conversation, error) {
	directory, country, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	contactName := directory.NameFor(phoneNumber)

	messages := map[int64]model.ConversationMessage{}
	phoneNumbers := []string{}
	msgCount := 0

	identityNumbers := directory.Inverse[contactName]
	if contactName == "" || len(identityNumbers) == 0 {
		identityNumbers = []string{phoneNumber}
	}

	for _, number := range identityNumbers {
		conversation, err := s.store.ConversationSince(userID, number, country, since)
		if err != nil {
			return nil, err
		}
		for date, msg := range conversation {
			messages[date] = msg
		}

		count, err := s.store.CountForCanonical(userID, number, country)
		if err != nil {
			return nil, err
		}
		msgCount += count

		phoneNumbers = append(phoneNumbers, phone.Canonicalize(country, number))
	}

	return &Conversation{
		Messages:     truncateToNewest(messages, s.store.MessageLimit(userID)),
		ContactName:  contactName,
		PhoneNumbers: phoneNumbers,
		MessageCount: msgCount,
	}, nil
}

// MarkConversationRead advances the read state of every contributing number.
// Read state is a best-effort hint: a concurrent fetch from another device may
// still observe the previous value between fetch and mark.
func (s *Service) MarkConversationRead(userID string, phoneNumbers []string, maxDate int64) error {
	for _, number := range phoneNumbers {
		if err := s.store.SetLast(userID, number, maxDate); err != nil {
			return err
		}
	}
	return nil
}

// CheckNewMessages reports still-unread conversations since the client's
// cursor. Pure read, no state is advanced.
func (s *Service) CheckNewMessages(ctx context.Context, userID string, since int64) (*NewMessages, error) {
	directory, country, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	phoneList, err := s.store.UnreadCountsSince(userID, since)
	if err != nil {
		return nil, err
	}

	result := &NewMessages{
		PhoneList: phoneList,
		Contacts:  map[string]string{},
		Photos:    map[string]string{},
		UIDs:      map[string]string{},
	}

	for number := range phoneList {
		canonical := phone.Canonicalize(country, number)
		name, ok := directory.Contacts[canonical]
		if !ok {
			continue
		}
		result.Contacts[canonical] = name
		if uid, ok := directory.UIDs[canonical]; ok {
			result.UIDs[canonical] = uid
		}
		if photo, ok := directory.Photos[name]; ok {
			result.Photos[name] = photo
		}
	}
	return result, nil
}

// DeleteConversation removes the messages of every number belonging to the
// resolved identity. Unknown contacts fall back to the canonical group of the
// given number.
func (s *Service) DeleteConversation(ctx context.Context, userID, contact string) error {
	directory, country, err := s.snapshot(ctx, userID)
	if err != nil {
		return err
	}

	identityNumbers := directory.Inverse[directory.NameFor(contact)]
	if len(identityNumbers) == 0 {
		identityNumbers = []string{contact}
	}

	// Deletion operates on exact raw strings, so each identity number is
	// expanded to its stored variants first.
	for _, number := range identityNumbers {
		variants, err := s.store.AddressesGroupedByCanonical(userID, number, country)
		if err != nil {
			return err
		}
		for address := range variants {
			if err := s.store.RemoveByRawAddress(userID, address); err != nil {
				return err
			}
		}
	}
	return nil
}

// truncateToNewest keeps the limit newest entries of a timestamp-keyed
// transcript.
func truncateToNewest(messages map[int64]model.ConversationMessage, limit int) map[int64]model.ConversationMessage {
	if limit <= 0 || len(messages) <= limit {
		return messages
	}

	dates := make([]int64, 0, len(messages))
	for date := range messages {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })

	truncated := make(map[int64]model.ConversationMessage, limit)
	for _, date := range dates[len(dates)-limit:] {
		truncated[date] = messages[date]
	}
	return truncated
}
