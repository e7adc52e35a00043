package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/smsvault/smsvault/internal/phone"
	"github.com/smsvault/smsvault/internal/store"
)

type SettingsStore interface {
	SetSetting(userID, key, value string) error
	Country(userID string) (string, bool)
	MessageLimit(userID string) int
	NotificationState(userID string) int
	ContactOrder(userID string) string
	ContactOrderReverse(userID string) string
}

func GetSettings(settings SettingsStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := currentUser(c)
		country, ok := settings.Country(userID)
		if !ok {
			return c.JSON(http.StatusOK, echo.Map{"status": false})
		}

		return c.JSON(http.StatusOK, echo.Map{
			"status":                true,
			"country":               country,
			"message_limit":         settings.MessageLimit(userID),
			"notification_state":    settings.NotificationState(userID),
			"contact_order":         settings.ContactOrder(userID),
			"contact_order_reverse": settings.ContactOrderReverse(userID),
		})
	}
}

type countryParams struct {
	Country string `json:"country"`
}

func SetCountry(settings SettingsStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := countryParams{}
		if err := c.Bind(&params); err != nil {
			return err
		}
		if !phone.IsValidCountry(params.Country) {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": false, "msg": "Invalid country"})
		}
		if err := settings.SetSetting(currentUser(c), store.SettingCountry, params.Country); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"status": true, "msg": "OK"})
	}
}

type messageLimitParams struct {
	Limit int `json:"limit"`
}

func SetMessageLimit(settings SettingsStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := messageLimitParams{}
		if err := c.Bind(&params); err != nil {
			return err
		}
		if params.Limit <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": false, "msg": "Invalid message limit"})
		}
		if err := settings.SetSetting(currentUser(c), store.SettingMessageLimit, strconv.Itoa(params.Limit)); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"status": true, "msg": "OK"})
	}
}

type notificationParams struct {
	Notification int `json:"notification"`
}

func SetNotificationState(settings SettingsStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := notificationParams{}
		if err := c.Bind(&params); err != nil {
			return err
		}
		if params.Notification < 0 || params.Notification > 2 {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": false, "msg": "Invalid notification state"})
		}
		if err := settings.SetSetting(currentUser(c), store.SettingNotificationState, strconv.Itoa(params.Notification)); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"status": true, "msg": "OK"})
	}
}

type contactOrderParams struct {
	Attribute string `json:"attribute"`
	Reverse   string `json:"reverse"`
}

func SetContactOrder(settings SettingsStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := contactOrderParams{}
		if err := c.Bind(&params); err != nil {
			return err
		}
		if params.Attribute != "lastmsg" && params.Attribute != "label" {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": false, "msg": "Invalid contact ordering"})
		}
		if params.Reverse != "true" && params.Reverse != "false" {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": false, "msg": "Invalid contact ordering"})
		}

		userID := currentUser(c)
		if err := settings.SetSetting(userID, store.SettingContactOrder, params.Attribute); err != nil {
			return err
		}
		if err := settings.SetSetting(userID, store.SettingContactOrderReverse, params.Reverse); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"status": true, "msg": "OK"})
	}
}
