package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/snapdrill/snapdrill/pkg/platform"
)

// pageInfo is the cursor block of a paginated connection.
type pageInfo struct {
	EndCursor   string `json:"endCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

// connection is one page of a paginated query result.
type connection[T any] struct {
	Nodes    []T      `json:"nodes"`
	PageInfo pageInfo `json:"pageInfo"`
}

// keyed is satisfied by nodes that carry a unique id, used to de-duplicate
// nodes across pages.
type keyed interface {
	Key() string
}

// collectPages walks every page of the connection under root, feeding the
// endCursor back until hasNextPage is false, and returns the de-duplicated
// node list.
func collectPages[T keyed](ctx context.Context, c *platform.Client, query, root string) ([]T, error) {
	var all []T
	seen := make(map[string]struct{})
	variables := map[string]any{}

	for {
		var payload map[string]json.RawMessage
		if err := c.Query(ctx, query, variables, &payload); err != nil {
			return nil, err
		}
		raw, ok := payload[root]
		if !ok {
			return nil, fmt.Errorf("response carried no %q field", root)
		}

		var page connection[T]
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("failed to decode %q page: %w", root, err)
		}

		for _, n := range page.Nodes {
			if _, dup := seen[n.Key()]; dup {
				continue
			}
			seen[n.Key()] = struct{}{}
			all = append(all, n)
		}

		if !page.PageInfo.HasNextPage || page.PageInfo.EndCursor == "" {
			return all, nil
		}
		variables["endCursor"] = page.PageInfo.EndCursor
	}
}
