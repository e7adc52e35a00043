package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/smsvault/smsvault/internal/service/conversation"
)

type ConversationService interface {
	RetrieveAllPeers(ctx context.Context, userID string) (*conversation.PeerList, error)
	GetConversation(ctx context.Context, userID, phoneNumber string, since int64) (*conversation.Conversation, error)
	CheckNewMessages(ctx context.Context, userID string, since int64) (*conversation.NewMessages, error)
	DeleteConversation(ctx context.Context, userID, contact string) error
}

func Index(messages MessageStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		phoneNumbers, err := messages.DistinctAddresses(currentUser(c))
		if err != nil {
			return err
		}
		return c.Render(http.StatusOK, "main.html", echo.Map{
			"user":         currentUser(c),
			"phoneNumbers": phoneNumbers,
		})
	}
}

func RetrieveAllPeers(service ConversationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		peers, err := service.RetrieveAllPeers(c.Request().Context(), currentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, peers)
	}
}

func GetConversation(service ConversationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		phoneNumber := c.QueryParam("phoneNumber")
		if phoneNumber == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid request"})
		}

		lastDate := int64(0)
		if raw := c.QueryParam("lastDate"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid request"})
			}
			lastDate = parsed
		}

		conv, err := service.GetConversation(c.Request().Context(), currentUser(c), phoneNumber, lastDate)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, conv)
	}
}

func DeleteConversation(service ConversationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		contact := c.Param("contact")
		if contact == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid request"})
		}
		if err := service.DeleteConversation(c.Request().Context(), currentUser(c), contact); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}

func CheckNewMessages(service ConversationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		lastDate := int64(0)
		if raw := c.QueryParam("lastDate"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid request"})
			}
			lastDate = parsed
		}

		newMessages, err := service.CheckNewMessages(c.Request().Context(), currentUser(c), lastDate)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, newMessages)
	}
}
