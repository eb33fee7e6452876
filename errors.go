package searchflip

import "github.com/olleolleolle/search-flip/internal/domain"

// Sentinel errors. Match with errors.Is.
var (
	ErrMalformedQuery  = domain.ErrMalformedQuery
	ErrConnection      = domain.ErrConnection
	ErrScrollExpired   = domain.ErrScrollExpired
	ErrInvalidResponse = domain.ErrInvalidResponse
)

// ResponseError carries a non-success status and the raw body.
type ResponseError = domain.ResponseError

// ConnectionError wraps a transport failure.
type ConnectionError = domain.ConnectionError

// IsRetryable reports whether repeating the whole call may succeed. After
// ErrScrollExpired the scroll must restart from the first page.
func IsRetryable(err error) bool { return domain.IsRetryable(err) }
