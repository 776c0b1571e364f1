package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"FortressModels/shared/proto/query"
)

// waitServer tenta abrir o WebSocket até o servidor responder com o
// ServerStatus de boas-vindas ou o contexto expirar.
func waitServer(ctx context.Context, url string, interval time.Duration) (*query.ServerStatus, error) {
	var lastErr error
	for {
		st, err := probe(ctx, url)
		if err == nil {
			return st, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("servidor não respondeu em %s: %w", url, lastErr)
		case <-time.After(interval):
		}
	}
}

func probe(ctx context.Context, url string) (*query.ServerStatus, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var env query.Envelope
	if err := env.Unmarshal(data); err != nil {
		return nil, err
	}
	if env.Type != query.EnvelopeServerStatus {
		return nil, fmt.Errorf("mensagem inesperada: %s", env.Type)
	}
	var st query.ServerStatus
	if err := st.Unmarshal(env.Payload); err != nil {
		return nil, err
	}
	return &st, nil
}
