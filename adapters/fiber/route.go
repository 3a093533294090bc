// Package fiber mounts guildhall's endpoints on a Fiber v3 app.
package fiber

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"

	"github.com/lborres/guildhall"
	"github.com/lborres/guildhall/core"
	"github.com/lborres/guildhall/services"
)

// Recorder receives request and authentication outcomes
type Recorder interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
	ObserveAuth(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, string, int, time.Duration) {}
func (nopRecorder) ObserveAuth(string)                                {}

type Adapter struct {
	app      *fiber.App
	recorder Recorder
	logger   *slog.Logger
	g        *guildhall.Guildhall
}

var _ guildhall.HTTPAdapter = (*Adapter)(nil)

type Option func(*Adapter)

func WithRecorder(r Recorder) Option {
	return func(a *Adapter) {
		if r != nil {
			a.recorder = r
		}
	}
}

func New(app *fiber.App, opts ...Option) *Adapter {
	a := &Adapter{
		app:      app,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type route struct {
	auth core.AuthLevel
	fn   result
}

func (a *Adapter) routes() map[string]route {
	return map[string]route{
		services.OpSignUp:  {core.AuthNone, a.signUp},
		services.OpSignIn:  {core.AuthNone, a.signIn},
		services.OpSignOut: {core.AuthSession, a.signOut},

		services.OpGetMe:         {core.AuthSession, a.getMe},
		services.OpUpdateProfile: {core.AuthSession, a.updateProfile},
		services.OpDeleteAccount: {core.AuthReauth, a.deleteAccount},

		services.OpCreateCharacter: {core.AuthSession, a.createCharacter},
		services.OpListCharacters:  {core.AuthNone, a.listCharacters},
		services.OpGetCharacter:    {core.AuthNone, a.getCharacter},
		services.OpRenameCharacter: {core.AuthSession, a.renameCharacter},
		services.OpDeleteCharacter: {core.AuthReauth, a.deleteCharacter},

		services.OpCreateItem: {core.AuthSession, a.createItem},
		services.OpListItems:  {core.AuthNone, a.listItems},
		services.OpGetItem:    {core.AuthNone, a.getItem},
		services.OpUpdateItem: {core.AuthSession, a.updateItem},
		services.OpDeleteItem: {core.AuthReauth, a.deleteItem},
	}
}

// RegisterRoutes binds a handler to every endpoint of g by operation id.
// An endpoint without a handler, without a success status, or whose declared
// auth level differs from the handler's, is a configuration error.
func (a *Adapter) RegisterRoutes(g *guildhall.Guildhall) error {
	a.g = g
	a.logger = g.Logger.With("component", "http")

	api := a.app.Group(g.BasePath,
		requestid.New(requestid.Config{Generator: core.NewID}),
		fiber.Handler(a.requestLog),
		recover.New(),
	)

	handlers := a.routes()
	for _, ep := range g.Endpoints {
		r, ok := handlers[ep.Metadata.OperationID]
		if !ok {
			return fmt.Errorf("no handler for %s %s (%s)", ep.Method, ep.Path, ep.Metadata.OperationID)
		}
		if r.auth != ep.Auth {
			return fmt.Errorf("handler for %s requires %s, endpoint declares %s",
				ep.Metadata.OperationID, r.auth, ep.Auth)
		}
		status := ep.Metadata.Status
		if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
			return fmt.Errorf("endpoint %s declares success status %d", ep.Metadata.OperationID, status)
		}
		handler := a.handle(status, r.fn)

		switch ep.Method {
		case http.MethodGet:
			api.Get(ep.Path, handler)
		case http.MethodPost:
			api.Post(ep.Path, handler)
		case http.MethodPut:
			api.Put(ep.Path, handler)
		case http.MethodDelete:
			api.Delete(ep.Path, handler)
		default:
			return fmt.Errorf("unsupported method %s for %s", ep.Method, ep.Path)
		}
	}

	a.app.Get("/healthz", a.healthz)

	return nil
}

func (a *Adapter) healthz(c fiber.Ctx) error {
	if err := a.g.Ping(c.Context()); err != nil {
		a.logger.WarnContext(c.Context(), "health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "storage unavailable"})
	}
	return c.JSON(fiber.Map{"data": "ok"})
}
