package client

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// guard collapses identical concurrent operations into one backend call.
// Keys combine the operation name with a payload fingerprint.
//
// The shared call runs detached from any single caller's cancellation and
// is bounded by the transport timeout instead. Each caller still stops
// waiting when its own ctx is done.
type guard struct {
	group singleflight.Group
}

func (g *guard) do(ctx context.Context, op, key string, fn func(context.Context) (any, error)) (any, error) {
	shared := context.WithoutCancel(ctx)
	ch := g.group.DoChan(op+":"+key, func() (any, error) {
		return fn(shared)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, &NetworkError{Op: op, Err: ctx.Err()}
	}
}
