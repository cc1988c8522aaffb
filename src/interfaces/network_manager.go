package interfaces

import (
	"context"
	"io"
)

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for HTTP requests with auth and retry logic.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a GET request to the path with query parameters.
	// Returns the response body as bytes or an error.
	Get(ctx context.Context, path string, params map[string]string) ([]byte, error)

	// -----------------------------------------------------------------------------

	// PostJSON sends body encoded as JSON. A nil body sends no payload.
	PostJSON(ctx context.Context, path string, body interface{}) ([]byte, error)

	// -----------------------------------------------------------------------------

	// PostFile uploads a multipart form with a single "file" field.
	PostFile(ctx context.Context, path, filename string, content io.Reader) ([]byte, error)

	// -----------------------------------------------------------------------------

	// Delete performs a DELETE request.
	Delete(ctx context.Context, path string, params map[string]string) ([]byte, error)

	// -----------------------------------------------------------------------------

	// SetToken replaces the bearer token sent with every request.
	SetToken(token string)
}
