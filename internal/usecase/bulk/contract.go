package bulk

import (
	"context"
	"net/http"
	"net/url"

	"github.com/olleolleolle/search-flip/internal/transport/rest"
)

// Sender posts one bulk body.
type Sender interface {
	Post(ctx context.Context, path string, body []byte, params url.Values, headers http.Header) (*rest.Response, error)
}

// Observer is notified around each batch submission. The returned function
// is called with the batch outcome.
type Observer interface {
	BatchStart(ctx context.Context, index string, size int) (context.Context, func(err error))
}
