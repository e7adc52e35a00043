// Package handlers exposes the sync engine over HTTP. The device-facing API
// mirrors the sync protocol (push, replace, delta fetch, send queue); the
// front endpoints serve the conversation views.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/smsvault/smsvault/internal/model"
)

// maxFetchLimit caps a single delta fetch regardless of the requested limit.
const maxFetchLimit = 500

type MessageStore interface {
	ListIDsByMailbox(userID string) (map[string][]int64, error)
	MaxTimestamp(userID string) (int64, error)
	DistinctAddresses(userID string) ([]string, error)
	MessageCount(userID string) (int, error)
	Page(userID string, start int64, limit int) (map[int64]model.PagedMessage, error)
	Ingest(userID string, batch []model.MessageInput, fullReplace bool) error
	RemoveOne(userID, address string, date int64) error
	RemoveAll(userID string) error
}

type SendQueue interface {
	Enqueue(userID, address, body string) (int64, error)
	QueuedForUser(userID string) ([]model.QueuedMessage, error)
	Acknowledge(userID string, id int64) error
}

func GetApiVersion() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"version": 1})
	}
}

func RetrieveAllIds(messages MessageStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		smsList, err := messages.ListIDsByMailbox(currentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"smslist": smsList})
	}
}

func RetrieveLastTimestamp(messages MessageStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ts, err := messages.MaxTimestamp(currentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"timestamp": ts})
	}
}

func FetchMessagesCount(messages MessageStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		count, err := messages.MessageCount(currentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"count": count})
	}
}

func GetAllStoredPhoneNumbers(messages MessageStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		phoneList, err := messages.DistinctAddresses(currentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"phoneList": phoneList})
	}
}

// FetchMessages serves the incremental fetch: cursor = last seen timestamp.
func FetchMessages(messages MessageStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		start, err := strconv.ParseInt(c.QueryParam("start"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid request"})
		}
		limit, err := strconv.Atoi(c.QueryParam("limit"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid request"})
		}

		if start < 0 || limit <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid request"})
		}
		if limit > maxFetchLimit {
			limit = maxFetchLimit
		}

		page, err := messages.Page(currentUser(c), start, limit)
		if err != nil {
			return err
		}

		lastID := start
		for date := range page {
			if date > lastID {
				lastID = date
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"messages": page, "last_id": lastID})
	}
}

func Push(messages MessageStore) echo.HandlerFunc {
	return ingest(messages, false)
}

func Replace(messages MessageStore) echo.HandlerFunc {
	return ingest(messages, true)
}

func ingest(messages MessageStore, fullReplace bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		body := c.Request().Body
		defer body.Close()

		batch, err := parsePushPayload(body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": false, "msg": err.Error()})
		}

		batchID := model.CreateID()
		if err := messages.Ingest(currentUser(c), batch, fullReplace); err != nil {
			return err
		}
		c.Logger().Infof("ingested batch %s: %d messages (replace=%t)", batchID, len(batch), fullReplace)

		return c.JSON(http.StatusOK, echo.Map{"status": true, "msg": "OK"})
	}
}

// GenerateTestData seeds two fixed messages; registered in development only.
func GenerateTestData(messages MessageStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		batch := []model.MessageInput{
			{ID: 702, Type: 1, Mailbox: 2, Read: true, Seen: true, Date: 1654777747, Address: "+33123456789", Body: "hello dude"},
			{ID: 685, Type: 1, Mailbox: 1, Read: true, Seen: true, Date: 1654777777, Address: "+33123456789", Body: "😀🍕🎉"},
		}
		if err := messages.Ingest(currentUser(c), batch, false); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"status": true, "msg": "OK"})
	}
}

func DeleteMessage(messages MessageStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		date, err := strconv.ParseInt(c.QueryParam("messageId"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{})
		}
		if err := messages.RemoveOne(currentUser(c), c.QueryParam("phoneNumber"), date); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}

func WipeAllMessages(messages MessageStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := messages.RemoveAll(currentUser(c)); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}

type composeParams struct {
	Address string `json:"address"`
	Message string `json:"msg"`
}

func ComposeMessage(queue SendQueue) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := composeParams{}
		if err := c.Bind(&params); err != nil {
			return err
		}
		if params.Address == "" || params.Message == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": false, "msg": "Error: empty address or message"})
		}

		id, err := queue.Enqueue(currentUser(c), params.Address, params.Message)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"status": true, "id": id})
	}
}

func FetchMessagesToSend(queue SendQueue) echo.HandlerFunc {
	return func(c echo.Context) error {
		messages, err := queue.QueuedForUser(currentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"messages": messages})
	}
}

func AckSentMessage(queue SendQueue) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid request"})
		}
		if err := queue.Acknowledge(currentUser(c), id); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}
