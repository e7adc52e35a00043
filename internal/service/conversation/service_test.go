package conversation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smsvault/smsvault/internal/contacts"
	"github.com/smsvault/smsvault/internal/model"
	"github.com/smsvault/smsvault/internal/store"
	"github.com/smsvault/smsvault/pkg/crypt"
)

type staticProvider struct {
	listing []contacts.Contact
}

func (p staticProvider) ListContacts(context.Context, string) ([]contacts.Contact, error) {
	return p.listing, nil
}

func newTestService(t *testing.T, listing []contacts.Contact) (*Service, *store.Store) {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(dsn, crypt.New("test-secret"))
	if err != nil {
		t.Fatalf("opening test store: %+v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.SetSetting("alice", store.SettingCountry, "France"); err != nil {
		t.Fatalf("setting country: %+v", err)
	}
	return New(s, staticProvider{listing: listing}), s
}

func johnListing() []contacts.Contact {
	return []contacts.Contact{
		{
			DisplayName: "John Doe",
			Numbers:     []string{"+33611223344", "+33123456789"},
			Photo:       "john.png",
			UID:         "uid-john",
		},
	}
}

func seedMessages(t *testing.T, s *store.Store, batch []model.MessageInput) {
	t.Helper()
	if err := s.Ingest("alice", batch, false); err != nil {
		t.Fatalf("seeding messages: %+v", err)
	}
}

func TestRetrieveAllPeers(t *testing.T) {
	assert := assert.New(t)
	svc, s := newTestService(t, johnListing())

	seedMessages(t, s, []model.MessageInput{
		{ID: 1, Address: "+33 6 11 22 33 44", Date: 100, Body: "hi", Mailbox: 0, Type: 1},
		{ID: 2, Address: "+33611223344", Date: 300, Body: "again", Mailbox: 1, Type: 2},
		{ID: 3, Address: "+33699999999", Date: 200, Body: "stranger", Mailbox: 0, Type: 1},
	})
	assert.Nil(s.SetLast("alice", "+33611223344", 300))

	peers, err := svc.RetrieveAllPeers(context.Background(), "alice")
	assert.Nil(err)

	assert.Equal(int64(300), peers.PhoneList["+33611223344"])
	assert.Equal(int64(200), peers.PhoneList["+33699999999"])
	assert.Equal("John Doe", peers.Contacts["+33611223344"])
	// Unknown peers resolve to their own canonical form.
	assert.Equal("+33699999999", peers.Contacts["+33699999999"])
	assert.Equal(int64(300), peers.LastRead)
	assert.Equal(int64(300), peers.LastMessage)
	assert.Equal("john.png", peers.Photos["John Doe"])
	assert.Equal("uid-john", peers.UIDs["+33611223344"])
	assert.Equal(2, peers.PhotoVersion)
}

func TestFetchConversationMergesIdentityNumbers(t *testing.T) {
	assert := assert.New(t)
	svc, s := newTestService(t, johnListing())

	// Traffic across both of John's numbers and two spellings of one of them.
	seedMessages(t, s, []model.MessageInput{
		{ID: 1, Address: "+33 6 11 22 33 44", Date: 100, Body: "mobile spaced", Mailbox: 0, Type: 1},
		{ID: 2, Address: "+33611223344", Date: 200, Body: "mobile plain", Mailbox: 1, Type: 2},
		{ID: 3, Address: "0123456789", Date: 300, Body: "landline", Mailbox: 0, Type: 1},
		{ID: 4, Address: "+33699999999", Date: 400, Body: "someone else", Mailbox: 0, Type: 1},
	})

	conv, err := svc.FetchConversation(context.Background(), "alice", "0611223344", 0)
	assert.Nil(err)

	assert.Equal("John Doe", conv.ContactName)
	assert.ElementsMatch([]string{"+33611223344", "+33123456789"}, conv.PhoneNumbers)
	assert.Len(conv.Messages, 3)
	assert.Equal("mobile spaced", conv.Messages[100].Body)
	assert.Equal("landline", conv.Messages[300].Body)
	assert.Equal(3, conv.MessageCount)

	t.Run("cursor filters transcript but not count", func(t *testing.T) {
		conv, err := svc.FetchConversation(context.Background(), "alice", "0611223344", 200)
		assert.Nil(err)
		assert.Len(conv.Messages, 1)
		assert.Equal(3, conv.MessageCount)
	})

	t.Run("no read state advanced", func(t *testing.T) {
		last, err := s.MaxReadFor("alice", "+33611223344")
		assert.Nil(err)
		assert.Equal(int64(0), last)
	})
}

func TestFetchConversationUnknownNumber(t *testing.T) {
	assert := assert.New(t)
	svc, s := newTestService(t, johnListing())

	seedMessages(t, s, []model.MessageInput{
		{ID: 1, Address: "+33699999999", Date: 100, Body: "hello stranger", Mailbox: 0, Type: 1},
	})

	conv, err := svc.FetchConversation(context.Background(), "alice", "06 99 99 99 99", 0)
	assert.Nil(err)
	assert.Equal("", conv.ContactName)
	assert.Equal([]string{"+33699999999"}, conv.PhoneNumbers)
	assert.Len(conv.Messages, 1)
}

func TestFetchConversationHonorsMessageLimit(t *testing.T) {
	assert := assert.New(t)
	svc, s := newTestService(t, johnListing())
	assert.Nil(s.SetSetting("alice", store.SettingMessageLimit, "2"))

	seedMessages(t, s, []model.MessageInput{
		{ID: 1, Address: "+33611223344", Date: 100, Body: "oldest", Mailbox: 0, Type: 1},
		{ID: 2, Address: "+33611223344", Date: 200, Body: "middle", Mailbox: 0, Type: 1},
		{ID: 3, Address: "+33611223344", Date: 300, Body: "newest", Mailbox: 0, Type: 1},
	})

	conv, err := svc.FetchConversation(context.Background(), "alice", "+33611223344", 0)
	assert.Nil(err)
	assert.Len(conv.Messages, 2)
	assert.NotContains(conv.Messages, int64(100))
	assert.Equal("newest", conv.Messages[300].Body)
	// The count still reports the full conversation.
	assert.Equal(3, conv.MessageCount)
}

func TestGetConversationMarksRead(t *testing.T) {
	assert := assert.New(t)
	svc, s := newTestService(t, johnListing())

	seedMessages(t, s, []model.MessageInput{
		{ID: 1, Address: "+33611223344", Date: 100, Body: "a", Mailbox: 0, Type: 1},
		{ID: 2, Address: "0123456789", Date: 300, Body: "b", Mailbox: 0, Type: 1},
	})

	conv, err := svc.GetConversation(context.Background(), "alice", "+33611223344", 0)
	assert.Nil(err)
	assert.Len(conv.Messages, 2)

	// Every identity number advances to the newest returned timestamp.
	for _, number := range []string{"+33611223344", "+33123456789"} {
		last, err := s.MaxReadFor("alice", number)
		assert.Nil(err)
		assert.Equal(int64(300), last, "number %s", number)
	}

	t.Run("empty transcript leaves read state alone", func(t *testing.T) {
		_, err := svc.GetConversation(context.Background(), "alice", "+33611223344", 300)
		assert.Nil(err)

		last, err := s.MaxReadFor("alice", "+33611223344")
		assert.Nil(err)
		assert.Equal(int64(300), last)
	})
}

func TestCheckNewMessages(t *testing.T) {
	assert := assert.New(t)
	svc, s := newTestService(t, johnListing())

	seedMessages(t, s, []model.MessageInput{
		{ID: 1, Address: "+33611223344", Date: 1100, Body: "unread", Mailbox: 0, Type: 1},
		{ID: 2, Address: "+33699999999", Date: 1200, Body: "unread stranger", Mailbox: 0, Type: 1},
		{ID: 3, Address: "+33655555555", Date: 1300, Body: "already read", Mailbox: 0, Type: 1},
	})
	assert.Nil(s.SetLast("alice", "+33655555555", 1300))

	delta, err := svc.CheckNewMessages(context.Background(), "alice", 1000)
	assert.Nil(err)

	assert.Equal(1, delta.PhoneList["+33611223344"])
	assert.Equal(1, delta.PhoneList["+33699999999"])
	assert.NotContains(delta.PhoneList, "+33655555555")

	// Identity data only for known contacts.
	assert.Equal("John Doe", delta.Contacts["+33611223344"])
	assert.NotContains(delta.Contacts, "+33699999999")
	assert.Equal("uid-john", delta.UIDs["+33611223344"])
	assert.Equal("john.png", delta.Photos["John Doe"])

	t.Run("pure read", func(t *testing.T) {
		last, err := s.MaxReadFor("alice", "+33611223344")
		assert.Nil(err)
		assert.Equal(int64(0), last)
	})
}

func TestDeleteConversation(t *testing.T) {
	assert := assert.New(t)
	svc, s := newTestService(t, johnListing())

	seedMessages(t, s, []model.MessageInput{
		{ID: 1, Address: "+33 6 11 22 33 44", Date: 100, Body: "mobile spaced", Mailbox: 0, Type: 1},
		{ID: 2, Address: "+33611223344", Date: 200, Body: "mobile plain", Mailbox: 1, Type: 2},
		{ID: 3, Address: "0123456789", Date: 300, Body: "landline", Mailbox: 0, Type: 1},
		{ID: 4, Address: "+33699999999", Date: 400, Body: "someone else", Mailbox: 0, Type: 1},
	})

	// Deleting through any spelling removes every stored variant of the
	// identity, across both of John's numbers.
	assert.Nil(svc.DeleteConversation(context.Background(), "alice", "0611223344"))

	count, err := s.MessageCount("alice")
	assert.Nil(err)
	assert.Equal(1, count)

	peers, err := svc.RetrieveAllPeers(context.Background(), "alice")
	assert.Nil(err)
	assert.Len(peers.PhoneList, 1)
	assert.Contains(peers.PhoneList, "+33699999999")
}

func TestDeleteConversationUnknownContact(t *testing.T) {
	assert := assert.New(t)
	svc, s := newTestService(t, johnListing())

	seedMessages(t, s, []model.MessageInput{
		{ID: 1, Address: "06 99 99 99 99", Date: 100, Body: "spaced", Mailbox: 0, Type: 1},
		{ID: 2, Address: "+33699999999", Date: 200, Body: "plain", Mailbox: 0, Type: 1},
	})

	assert.Nil(svc.DeleteConversation(context.Background(), "alice", "+33699999999"))

	count, err := s.MessageCount("alice")
	assert.Nil(err)
	assert.Equal(0, count)
}

func TestTruncateToNewest(t *testing.T) {
	assert := assert.New(t)

	messages := map[int64]model.ConversationMessage{
		100: {Body: "a"}, 200: {Body: "b"}, 300: {Body: "c"},
	}

	assert.Len(truncateToNewest(messages, 0), 3)
	assert.Len(truncateToNewest(messages, 5), 3)

	truncated := truncateToNewest(messages, 1)
	assert.Len(truncated, 1)
	assert.Equal("c", truncated[300].Body)
}
