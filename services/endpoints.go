package services

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/lborres/guildhall/core"
)

// Operation IDs. Adapters bind their handlers by these names.
const (
	OpSignUp          = "signUp"
	OpSignIn          = "signIn"
	OpSignOut         = "signOut"
	OpGetMe           = "getMe"
	OpUpdateProfile   = "updateProfile"
	OpDeleteAccount   = "deleteAccount"
	OpCreateCharacter = "createCharacter"
	OpListCharacters  = "listCharacters"
	OpGetCharacter    = "getCharacter"
	OpRenameCharacter = "renameCharacter"
	OpDeleteCharacter = "deleteCharacter"
	OpCreateItem      = "createItem"
	OpListItems       = "listItems"
	OpGetItem         = "getItem"
	OpUpdateItem      = "updateItem"
	OpDeleteItem      = "deleteItem"
)

func endpoint(method, path string, auth core.AuthLevel, status int, opID, desc string) core.Endpoint {
	return core.Endpoint{
		Path:   path,
		Method: method,
		Auth:   auth,
		Metadata: core.EndpointMetadata{
			OperationID: opID,
			Description: desc,
			Status:      status,
		},
	}
}

// BaseEndpoints returns framework-agnostic endpoint specifications
// for every route the service exposes.
//
// Each endpoint is a template: path, method and required auth level are
// fixed here, handlers are provided by adapters.
func BaseEndpoints() []core.Endpoint {
	return []core.Endpoint{
		endpoint(http.MethodPost, "/sign-up", core.AuthNone, http.StatusCreated,
			OpSignUp, "Create an account and its profile"),
		endpoint(http.MethodPost, "/sign-in", core.AuthNone, http.StatusOK,
			OpSignIn, "Sign in with email and password and receive a session cookie"),
		endpoint(http.MethodPost, "/sign-out", core.AuthSession, http.StatusOK,
			OpSignOut, "Revoke the current session token"),

		endpoint(http.MethodGet, "/users", core.AuthSession, http.StatusOK,
			OpGetMe, "Get the caller's account and profile"),
		endpoint(http.MethodPut, "/usersput/:id", core.AuthSession, http.StatusOK,
			OpUpdateProfile, "Update the caller's profile"),
		endpoint(http.MethodDelete, "/usersdelete/:id", core.AuthReauth, http.StatusOK,
			OpDeleteAccount, "Delete the caller's account and everything it owns"),

		endpoint(http.MethodPost, "/postcharacter", core.AuthSession, http.StatusCreated,
			OpCreateCharacter, "Create a character owned by the caller"),
		endpoint(http.MethodGet, "/postcharacter", core.AuthNone, http.StatusOK,
			OpListCharacters, "List all characters"),
		endpoint(http.MethodGet, "/postcharacter/:id", core.AuthNone, http.StatusOK,
			OpGetCharacter, "Get one character"),
		endpoint(http.MethodPut, "/putcharacter/:id", core.AuthSession, http.StatusOK,
			OpRenameCharacter, "Rename a character owned by the caller"),
		endpoint(http.MethodDelete, "/characterdelete/:id", core.AuthReauth, http.StatusOK,
			OpDeleteCharacter, "Delete a character owned by the caller"),

		endpoint(http.MethodPost, "/postitem", core.AuthSession, http.StatusCreated,
			OpCreateItem, "Create an item owned by the caller"),
		endpoint(http.MethodGet, "/postitem", core.AuthNone, http.StatusOK,
			OpListItems, "List all items"),
		endpoint(http.MethodGet, "/postitem/:id", core.AuthNone, http.StatusOK,
			OpGetItem, "Get one item"),
		endpoint(http.MethodPut, "/putitem/:id", core.AuthSession, http.StatusOK,
			OpUpdateItem, "Update an item owned by the caller"),
		endpoint(http.MethodDelete, "/itemdelete/:id", core.AuthReauth, http.StatusOK,
			OpDeleteItem, "Delete an item owned by the caller"),
	}
}

// EndpointRegistry manages a collection of framework-agnostic endpoints
// and handles conflict detection for duplicate METHOD:PATH combinations.
type EndpointRegistry struct {
	// endpoints stores all registered endpoints keyed by "METHOD:PATH"
	endpoints map[string]core.Endpoint
}

// NewEndpointRegistry creates a new registry with all base endpoints
// pre-registered.
func NewEndpointRegistry() *EndpointRegistry {
	reg := &EndpointRegistry{
		endpoints: make(map[string]core.Endpoint),
	}

	// BaseEndpoints is conflict-free; covered by tests.
	_ = reg.Register(BaseEndpoints())

	return reg
}

// Register adds endpoints to the registry.
// Returns error if any endpoint conflicts with an existing one or with
// another endpoint in the same batch, or reuses an OperationID.
//
// If an error occurs, no endpoints from the batch are registered.
func (r *EndpointRegistry) Register(endpoints []core.Endpoint) error {
	ops := make(map[string]bool, len(r.endpoints))
	for _, ep := range r.endpoints {
		ops[ep.Metadata.OperationID] = true
	}

	seen := make(map[string]bool, len(endpoints))
	for _, ep := range endpoints {
		key := ep.Key()

		if _, exists := r.endpoints[key]; exists {
			return fmt.Errorf("endpoint conflict: %s %s already registered", ep.Method, ep.Path)
		}
		if seen[key] {
			return fmt.Errorf("duplicate endpoint in batch: %s %s", ep.Method, ep.Path)
		}
		seen[key] = true

		if ep.Metadata.OperationID == "" {
			return fmt.Errorf("endpoint %s %s has no operation id", ep.Method, ep.Path)
		}
		if ops[ep.Metadata.OperationID] {
			return fmt.Errorf("operation id %q already registered", ep.Metadata.OperationID)
		}
		ops[ep.Metadata.OperationID] = true
	}

	for _, ep := range endpoints {
		r.endpoints[ep.Key()] = ep
	}

	return nil
}

// Endpoints returns all registered endpoints ordered by path then method.
func (r *EndpointRegistry) Endpoints() []core.Endpoint {
	result := make([]core.Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		result = append(result, ep)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Path != result[j].Path {
			return result[i].Path < result[j].Path
		}
		return result[i].Method < result[j].Method
	})
	return result
}
