package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pedroananias/rag-3w-cot/internal/httpjson"
)

// APIError is a non-200 reply from a model server.
type APIError struct {
	Backend string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Backend, e.Status, e.Message)
}

// postJSON posts payload for backend, turning error replies into *APIError.
func postJSON(ctx context.Context, client *http.Client, backend, url string, header http.Header, payload, out any) error {
	err := httpjson.Post(ctx, client, url, header, payload, out)
	var se *httpjson.StatusError
	if errors.As(err, &se) {
		return &APIError{Backend: backend, Status: se.Status, Message: se.Message}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", backend, err)
	}
	return nil
}
