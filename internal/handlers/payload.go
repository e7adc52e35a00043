package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/smsvault/smsvault/internal/model"
)

// pushRequest is the device sync payload shared by push and replace.
type pushRequest struct {
	SmsCount *int64           `json:"smsCount"`
	SmsDatas []map[string]any `json:"smsDatas"`
}

var requiredSmsFields = []string{"_id", "read", "date", "seen", "mbox", "type", "body", "address"}

// parsePushPayload validates a sync batch and converts it into message
// inputs. The first violation rejects the whole batch; nothing is partially
// accepted.
func parsePushPayload(body io.Reader) ([]model.MessageInput, error) {
	decoder := json.NewDecoder(body)
	decoder.UseNumber()

	request := pushRequest{}
	if err := decoder.Decode(&request); err != nil {
		return nil, model.ErrorInvalidPayload
	}

	if request.SmsCount == nil {
		return nil, fmt.Errorf("Error: smsCount field is NULL")
	}
	if request.SmsDatas == nil {
		return nil, fmt.Errorf("Error: smsDatas field is NULL")
	}
	if *request.SmsCount != int64(len(request.SmsDatas)) {
		return nil, fmt.Errorf("Error: sms count invalid")
	}

	batch := make([]model.MessageInput, 0, len(request.SmsDatas))
	for _, sms := range request.SmsDatas {
		for _, field := range requiredSmsFields {
			if _, ok := sms[field]; !ok {
				return nil, fmt.Errorf("Error: bad SMS entry")
			}
		}

		id, ok := asInt(sms["_id"])
		if !ok {
			return nil, fmt.Errorf("Error: Invalid SMS ID '%v'", sms["_id"])
		}

		smsType, ok := asInt(sms["type"])
		if !ok {
			return nil, fmt.Errorf("Error: Invalid SMS type '%v'", sms["type"])
		}

		mbox, ok := asInt(sms["mbox"])
		if !ok {
			return nil, fmt.Errorf("Error: Invalid Mailbox ID '%v'", sms["mbox"])
		}

		read, ok := asBoolLiteral(sms["read"])
		if !ok {
			return nil, fmt.Errorf("Error: Invalid SMS Read state '%v'", sms["read"])
		}

		seen, ok := asBoolLiteral(sms["seen"])
		if !ok {
			return nil, fmt.Errorf("Error: Invalid SMS Seen state")
		}

		date, ok := asInt(sms["date"])
		if !ok {
			return nil, fmt.Errorf("Error: Invalid SMS date")
		}

		batch = append(batch, model.MessageInput{
			ID:      id,
			Address: asString(sms["address"]),
			Date:    date,
			Body:    asString(sms["body"]),
			Mailbox: int(mbox),
			Type:    int(smsType),
			Read:    read,
			Seen:    seen,
		})
	}
	return batch, nil
}

// asInt accepts JSON numbers and numeric strings, the two encodings devices
// actually send.
func asInt(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			// Fractional timestamps get truncated rather than rejected.
			f, ferr := v.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// asBoolLiteral accepts exactly the literal strings "true" and "false".
func asBoolLiteral(value any) (bool, bool) {
	s, ok := value.(string)
	if !ok {
		return false, false
	}
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
