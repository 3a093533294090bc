package core

// AuthLevel is what a caller must present to reach an endpoint
type AuthLevel int

const (
	AuthNone    AuthLevel = iota // public
	AuthSession                  // valid session credential
	AuthReauth                   // valid session credential + password in body
)

func (l AuthLevel) String() string {
	switch l {
	case AuthNone:
		return "none"
	case AuthSession:
		return "session"
	case AuthReauth:
		return "session+password"
	default:
		return "unknown"
	}
}

// Endpoint is a framework-agnostic route description.
// Adapters bind a handler to each one by OperationID.
type Endpoint struct {
	Path     string
	Method   string
	Auth     AuthLevel
	Metadata EndpointMetadata
}

type EndpointMetadata struct {
	OperationID string
	Description string
	Status      int // success status code
}

func (e Endpoint) Key() string {
	return e.Method + ":" + e.Path
}
