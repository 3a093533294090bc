package guildhall

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lborres/guildhall/core"
	"github.com/lborres/guildhall/pkg/cache"
	"github.com/lborres/guildhall/pkg/crypto"
	"github.com/lborres/guildhall/services"
	"github.com/lborres/guildhall/validate"
)

// interfaces
type (
	StorageAdapter  = core.StorageAdapter
	PasswordHasher  = core.PasswordHasher
	RevocationCache = core.RevocationCache
)

// structs
type (
	SessionConfig  = core.SessionConfig
	Principal      = core.Principal
	Account        = core.Account
	Profile        = core.Profile
	AccountDetails = core.AccountDetails
	Character      = core.Character
	Item           = core.Item
	Endpoint       = core.Endpoint
)

const (
	defaultBasePath  = "/api"
	defaultSecretLen = crypto.MinSecretLength
	defaultCacheSize = 10000
)

// Constructors & helpers (convenience re-exports)
var (
	NewHasher            = crypto.NewHasher
	DefaultSessionConfig = core.DefaultSessionConfig
)

var (
	ErrValidation      = core.ErrValidation
	ErrUnauthenticated = core.ErrUnauthenticated
	ErrUnauthorized    = core.ErrUnauthorized
	ErrNotFound        = core.ErrNotFound
	ErrConflict        = core.ErrConflict
	ErrInternal        = core.ErrInternal
)

var (
	ErrStorageRequired     = core.ErrStorageRequired
	ErrHTTPAdapterRequired = core.ErrHTTPAdapterRequired
	ErrSecretRequired      = core.ErrSecretRequired
	ErrSecretTooShort      = core.ErrSecretTooShort
)

// HTTPAdapter mounts the service's endpoints on a web framework
type HTTPAdapter interface {
	RegisterRoutes(g *Guildhall) error
}

type Config struct {
	Secret   string
	Database core.StorageAdapter
	HTTP     HTTPAdapter

	SessionConfig   *core.SessionConfig
	PasswordHasher  core.PasswordHasher
	RevocationCache core.RevocationCache
	DisableCache    bool
	CacheSize       int

	BasePath     string
	CookieSecure bool
	Logger       *slog.Logger
}

// Guildhall is the wired service graph handed to HTTP adapters
type Guildhall struct {
	Auth       core.AuthHandler
	Accounts   core.AccountHandler
	Characters core.CharacterHandler
	Items      core.ItemHandler

	Sessions  *services.SessionManager
	Validator *validate.Validator
	Endpoints []core.Endpoint

	BasePath     string
	CookieSecure bool
	Logger       *slog.Logger

	db core.StorageAdapter
}

func New(config Config) (*Guildhall, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < defaultSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, defaultSecretLen)
	}
	if config.Database == nil {
		return nil, ErrStorageRequired
	}
	if config.HTTP == nil {
		return nil, ErrHTTPAdapterRequired
	}

	// Set Defaults

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessionConfig := config.SessionConfig
	if sessionConfig == nil {
		sessionConfig = &SessionConfig{
			MaxAge: 24 * time.Hour,
		}
	}

	revocationCache := config.RevocationCache
	if revocationCache == nil && !config.DisableCache {
		size := config.CacheSize
		if size <= 0 {
			size = defaultCacheSize
		}
		revocationCache = cache.NewMemory[string, struct{}](cache.Config{MaxSize: size})
	}

	passwordHasher := config.PasswordHasher
	if passwordHasher == nil {
		h, err := crypto.NewHasher(crypto.AlgorithmBcrypt, crypto.DefaultBcryptCost)
		if err != nil {
			return nil, err
		}
		passwordHasher = h
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	tokens, err := crypto.NewTokenCodec(config.Secret, sessionConfig.MaxAge)
	if err != nil {
		return nil, err
	}

	validator, err := validate.New()
	if err != nil {
		return nil, err
	}

	db := config.Database
	sessions := services.NewSessionManager(tokens, db, db, revocationCache)
	guard := services.NewGuard(db, passwordHasher)

	g := &Guildhall{
		Auth:         services.NewAuthService(db, passwordHasher, sessions, logger),
		Accounts:     services.NewAccountService(db, guard),
		Characters:   services.NewCharacterService(db, guard),
		Items:        services.NewItemService(db, guard),
		Sessions:     sessions,
		Validator:    validator,
		Endpoints:    services.NewEndpointRegistry().Endpoints(),
		BasePath:     basePath,
		CookieSecure: config.CookieSecure,
		Logger:       logger,
		db:           db,
	}

	if err := config.HTTP.RegisterRoutes(g); err != nil {
		return nil, err
	}

	return g, nil
}

// Ping reports whether storage is reachable
func (g *Guildhall) Ping(ctx context.Context) error {
	return g.db.Ping(ctx)
}
