package adapter

import (
	"context"
	"fmt"
	"strings"

	xhttp "OpsRecon/pkg/http"
)

// WritebackClient pushes read/acknowledge state to a source's mutation
// endpoints. Paths containing ":id" are substituted with the event id.
type WritebackClient struct {
	base        string
	client      *xhttp.Client
	markOnePath string // PATCH, ":id" placeholder
	markAllPath string // POST
	ackPath     string // POST, ":id" placeholder
}

// NewWritebackClient creates a write-back client for one source.
// Unused paths may be empty; the matching call then reports unsupported.
func NewWritebackClient(base string, client *xhttp.Client, markOne, markAll, ack string) *WritebackClient {
	return &WritebackClient{
		base:        base,
		client:      client,
		markOnePath: markOne,
		markAllPath: markAll,
		ackPath:     ack,
	}
}

// MarkRead marks one event read server-side.
func (w *WritebackClient) MarkRead(ctx context.Context, id string) error {
	if w.markOnePath == "" {
		return fmt.Errorf("mark-read unsupported")
	}
	return w.send(ctx, xhttp.MethodPatch, strings.ReplaceAll(w.markOnePath, ":id", id))
}

// MarkAllRead marks every event read server-side.
func (w *WritebackClient) MarkAllRead(ctx context.Context) error {
	if w.markAllPath == "" {
		return fmt.Errorf("mark-all-read unsupported")
	}
	return w.send(ctx, xhttp.MethodPost, w.markAllPath)
}

// Acknowledge acknowledges one anomaly server-side.
func (w *WritebackClient) Acknowledge(ctx context.Context, id string) error {
	if w.ackPath == "" {
		return fmt.Errorf("acknowledge unsupported")
	}
	return w.send(ctx, xhttp.MethodPost, strings.ReplaceAll(w.ackPath, ":id", id))
}

func (w *WritebackClient) send(ctx context.Context, method, path string) error {
	return w.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: method,
		URL:    w.base + path,
	}, nil)
}
