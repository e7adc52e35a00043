package main

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"

	"github.com/smsvault/smsvault/internal/boot"
	"github.com/smsvault/smsvault/internal/contacts"
	"github.com/smsvault/smsvault/internal/handlers"
	"github.com/smsvault/smsvault/internal/service/conversation"
	"github.com/smsvault/smsvault/internal/store"
	"github.com/smsvault/smsvault/pkg/crypt"
)

type Template struct {
	templates *template.Template
	watcher   *fsnotify.Watcher
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

func (t *Template) Watch() {
	var err error

	t.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("watcher: %+v", err)
	}

	go func() {
		for {
			select {
			case event, ok := <-t.watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) {
					log.Infof("modified file: %s", event.Name)
					t.templates = template.Must(template.ParseGlob("ui/views/*.html"))
				}
			case err, ok := <-t.watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("watcher: %+v", err)
			}
		}
	}()

	err = t.watcher.Add("./ui/views")
	if err != nil {
		log.Fatalf("watcher: %+v", err)
	}
}

func (t *Template) Close() {
	if t.watcher != nil {
		t.watcher.Close()
	}
}

func NewTemplate() *Template {
	return &Template{
		templates: template.Must(template.ParseGlob("ui/views/*.html")),
	}
}

func main() {
	config, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	crypter := crypt.New(config.Crypto.SettingsSecret)
	if err := os.MkdirAll(config.DataDir, 0o700); err != nil {
		log.Fatalf("creating data dir: %+v", err)
	}

	dsn := "file:" + path.Join(config.DataDir, "smsvault.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	datastore, err := store.Open(dsn, crypter)
	if err != nil {
		log.Fatalf("opening store: %+v", err)
	}
	defer datastore.Close()

	if imported, err := datastore.MigrateLegacyReadStates(); err != nil {
		log.Fatalf("migrating legacy read states: %+v", err)
	} else if imported > 0 {
		log.Infof("imported %d legacy read states", imported)
	}

	var provider contacts.Provider = contacts.NullProvider{}
	if config.Contacts.File != "" {
		provider = contacts.NewFileProvider(config.Contacts.File)
	}
	conversations := conversation.New(datastore, provider)

	server := echo.New()
	server.Use(middleware.BodyLimit("100M"))
	server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return cuid2.Generate()
		},
	}))
	server.Use(echoprometheus.NewMiddleware("smsvault"))
	server.Use(middleware.Recover())

	server.Logger.SetLevel(log.INFO)

	headers := []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID}
	server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{config.Server.Origins},
		AllowHeaders:     headers,
		AllowCredentials: true,
	}))

	t := NewTemplate()
	defer t.Close()
	if config.IsDevelopment() {
		t.Watch()
	}
	server.Renderer = t

	resolveUser := handlers.ResolveUser(config.Auth.JWTSecret)

	api := server.Group("/api", resolveUser)
	api.GET("/version", handlers.GetApiVersion())
	api.GET("/messages/ids", handlers.RetrieveAllIds(datastore))
	api.GET("/messages/lasttimestamp", handlers.RetrieveLastTimestamp(datastore))
	api.GET("/messages/count", handlers.FetchMessagesCount(datastore))
	api.GET("/messages", handlers.FetchMessages(datastore))
	api.GET("/phonenumbers", handlers.GetAllStoredPhoneNumbers(datastore))
	api.POST("/messages/push", handlers.Push(datastore))
	api.POST("/messages/replace", handlers.Replace(datastore))
	api.GET("/queue", handlers.FetchMessagesToSend(datastore))
	api.DELETE("/queue/:id", handlers.AckSentMessage(datastore))
	if config.IsDevelopment() {
		api.POST("/testdata", handlers.GenerateTestData(datastore))
	}

	front := server.Group("/front", resolveUser)
	front.GET("/peers", handlers.RetrieveAllPeers(conversations))
	front.GET("/conversation", handlers.GetConversation(conversations))
	front.DELETE("/conversation/:contact", handlers.DeleteConversation(conversations))
	front.GET("/newmessages", handlers.CheckNewMessages(conversations))
	front.POST("/queue", handlers.ComposeMessage(datastore))
	front.DELETE("/message", handlers.DeleteMessage(datastore))
	front.DELETE("/messages", handlers.WipeAllMessages(datastore))
	front.GET("/settings", handlers.GetSettings(datastore))
	front.POST("/settings/country", handlers.SetCountry(datastore))
	front.POST("/settings/message-limit", handlers.SetMessageLimit(datastore))
	front.POST("/settings/notification-state", handlers.SetNotificationState(datastore))
	front.POST("/settings/contact-order", handlers.SetContactOrder(datastore))

	server.GET("/", handlers.Index(datastore), resolveUser)

	go func() {
		metrics := echo.New()
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(":" + config.Server.MetricsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		if err := server.Start(":" + config.Server.Port); err != nil && err != http.ErrServerClosed {
			server.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Logger.Fatal(err)
	}
}
