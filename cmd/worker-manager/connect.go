package main

import "context"

// pingCloser is a dependency client opened eagerly and verified with a ping.
type pingCloser interface {
	Ping(ctx context.Context) error
	Close() error
}

// openAndPing opens a client and pings it. A client that fails the ping is
// closed so a retry does not leave its pool behind.
func openAndPing[C pingCloser](ctx context.Context, open func() (C, error)) (C, error) {
	var zero C
	client, err := open()
	if err != nil {
		return zero, err
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return zero, err
	}
	return client, nil
}
