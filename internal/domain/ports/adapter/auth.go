package adapter

import (
	"net/http"

	"workforce-billing/internal/domain/model"
)

// Authenticator resolves the viewer of a request. It returns (nil, nil) for
// anonymous requests and an error only for malformed or invalid credentials.
type Authenticator interface {
	Viewer(r *http.Request) (*model.Identity, error)
}
