package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smsvault/smsvault/internal/store"
)

type fakeSettingsStore struct {
	values map[string]string
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{values: map[string]string{}}
}

func (f *fakeSettingsStore) SetSetting(_ string, key, value string) error {
	f.values[key] = value
	return nil
}

func (f *fakeSettingsStore) Country(string) (string, bool) {
	country, ok := f.values[store.SettingCountry]
	return country, ok
}

func (f *fakeSettingsStore) MessageLimit(string) int         { return 500 }
func (f *fakeSettingsStore) NotificationState(string) int    { return 1 }
func (f *fakeSettingsStore) ContactOrder(string) string      { return "lastmsg" }
func (f *fakeSettingsStore) ContactOrderReverse(string) string { return "true" }

func TestGetSettings(t *testing.T) {
	assert := assert.New(t)

	t.Run("unconfigured user", func(t *testing.T) {
		c, rec := newTestContext(t, http.MethodGet, "/api/v2/settings", "")

		assert.Nil(GetSettings(newFakeSettingsStore())(c))
		assert.Equal(http.StatusOK, rec.Code)
		assert.Equal(false, decodeBody(t, rec)["status"])
	})

	t.Run("configured user", func(t *testing.T) {
		settings := newFakeSettingsStore()
		settings.values[store.SettingCountry] = "France"
		c, rec := newTestContext(t, http.MethodGet, "/api/v2/settings", "")

		assert.Nil(GetSettings(settings)(c))
		assert.Equal(http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(true, body["status"])
		assert.Equal("France", body["country"])
		assert.Equal(float64(500), body["message_limit"])
		assert.Equal("lastmsg", body["contact_order"])
	})
}

func TestSetCountry(t *testing.T) {
	assert := assert.New(t)

	t.Run("valid country", func(t *testing.T) {
		settings := newFakeSettingsStore()
		c, rec := newTestContext(t, http.MethodPost, "/api/v2/settings/country", `{"country": "France"}`)

		assert.Nil(SetCountry(settings)(c))
		assert.Equal(http.StatusOK, rec.Code)
		assert.Equal("France", settings.values[store.SettingCountry])
	})

	t.Run("unknown country", func(t *testing.T) {
		settings := newFakeSettingsStore()
		c, rec := newTestContext(t, http.MethodPost, "/api/v2/settings/country", `{"country": "Atlantis"}`)

		assert.Nil(SetCountry(settings)(c))
		assert.Equal(http.StatusBadRequest, rec.Code)
		assert.Empty(settings.values)
	})
}

func TestSetMessageLimit(t *testing.T) {
	assert := assert.New(t)

	t.Run("valid limit", func(t *testing.T) {
		settings := newFakeSettingsStore()
		c, rec := newTestContext(t, http.MethodPost, "/api/v2/settings/limit", `{"limit": 250}`)

		assert.Nil(SetMessageLimit(settings)(c))
		assert.Equal(http.StatusOK, rec.Code)
		assert.Equal("250", settings.values[store.SettingMessageLimit])
	})

	t.Run("rejects zero", func(t *testing.T) {
		settings := newFakeSettingsStore()
		c, rec := newTestContext(t, http.MethodPost, "/api/v2/settings/limit", `{"limit": 0}`)

		assert.Nil(SetMessageLimit(settings)(c))
		assert.Equal(http.StatusBadRequest, rec.Code)
		assert.Empty(settings.values)
	})
}

func TestSetNotificationState(t *testing.T) {
	assert := assert.New(t)

	for _, state := range []string{"0", "1", "2"} {
		settings := newFakeSettingsStore()
		c, rec := newTestContext(t, http.MethodPost, "/api/v2/settings/notification",
			`{"notification": `+state+`}`)

		assert.Nil(SetNotificationState(settings)(c))
		assert.Equal(http.StatusOK, rec.Code)
		assert.Equal(state, settings.values[store.SettingNotificationState])
	}

	t.Run("out of range", func(t *testing.T) {
		settings := newFakeSettingsStore()
		c, rec := newTestContext(t, http.MethodPost, "/api/v2/settings/notification", `{"notification": 3}`)

		assert.Nil(SetNotificationState(settings)(c))
		assert.Equal(http.StatusBadRequest, rec.Code)
	})
}

func TestSetContactOrder(t *testing.T) {
	assert := assert.New(t)

	t.Run("valid ordering", func(t *testing.T) {
		settings := newFakeSettingsStore()
		c, rec := newTestContext(t, http.MethodPost, "/api/v2/settings/order",
			`{"attribute": "label", "reverse": "false"}`)

		assert.Nil(SetContactOrder(settings)(c))
		assert.Equal(http.StatusOK, rec.Code)
		assert.Equal("label", settings.values[store.SettingContactOrder])
		assert.Equal("false", settings.values[store.SettingContactOrderReverse])
	})

	t.Run("unknown attribute", func(t *testing.T) {
		settings := newFakeSettingsStore()
		c, rec := newTestContext(t, http.MethodPost, "/api/v2/settings/order",
			`{"attribute": "alphabetical", "reverse": "true"}`)

		assert.Nil(SetContactOrder(settings)(c))
		assert.Equal(http.StatusBadRequest, rec.Code)
		assert.Empty(settings.values)
	})

	t.Run("non-literal reverse", func(t *testing.T) {
		settings := newFakeSettingsStore()
		c, rec := newTestContext(t, http.MethodPost, "/api/v2/settings/order",
			`{"attribute": "lastmsg", "reverse": "1"}`)

		assert.Nil(SetContactOrder(settings)(c))
		assert.Equal(http.StatusBadRequest, rec.Code)
	})
}
