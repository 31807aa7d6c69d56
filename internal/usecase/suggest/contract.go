package suggest

import "context"

// TitleSource supplies listing titles whose text contains the partial query.
type TitleSource interface {
	Titles(ctx context.Context, partial string, limit int) ([]string, error)
}
