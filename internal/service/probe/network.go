package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// TCP is ready when a connection to Address succeeds.
type TCP struct {
	Address string
}

// Check dials Address once.
func (c *TCP) Check(ctx context.Context) error {
	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", c.Address)
	if err != nil {
		return err
	}

	return conn.Close()
}

// HTTP is ready when a GET on URL answers with a status below 500.
type HTTP struct {
	URL    string
	Client *http.Client
}

// Check performs one GET request.
func (c *HTTP) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, http.NoBody)
	if err != nil {
		return Fatal(err)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	_ = resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s: %s", c.URL, resp.Status)
	}

	return nil
}

// GRPC is ready when the standard health service reports SERVING.
// A server without the health service counts as ready once it answers.
type GRPC struct {
	Address string
	// Service is the health service name, empty for the whole server.
	Service string
}

// Check performs one health RPC.
func (c *GRPC) Check(ctx context.Context) error {
	conn, err := grpc.NewClient(c.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return Fatal(fmt.Errorf("grpc client: %w", err))
	}

	defer func() {
		_ = conn.Close()
	}()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: c.Service})
	if err != nil {
		if status.Code(err) == codes.Unimplemented {
			return nil
		}

		return err
	}

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("grpc health: status %s", resp.GetStatus())
	}

	return nil
}
