package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Request pairs a resource with the policy used to reach it.
type Request struct {
	Resource string
	Policy   Policy
}

// Settled is the outcome of one request in a ResolveAll batch.
type Settled struct {
	Result
	Err error
}

// ResolveAll resolves every request concurrently and waits until all have
// settled. Results are in input order; a failure never cancels the others.
func (c *Client) ResolveAll(ctx context.Context, reqs []Request) []Settled {
	out := make([]Settled, len(reqs))

	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for i, r := range reqs {
		i, r := i, r
		g.Go(func() error {
			res, err := c.ResolveDetailed(ctx, r.Resource, r.Policy)
			out[i] = Settled{Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
