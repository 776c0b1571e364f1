package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"FortressModels/shared/proto/query"
)

// ErrNotConnected é devolvido por consultas feitas sem conexão ativa.
var ErrNotConnected = errors.New("cliente não conectado")

// NetworkClient lida com a comunicação com o servidor de consultas
type NetworkClient struct {
	conn      *websocket.Conn
	url       string
	connected bool
	mu        sync.RWMutex
	writeMu   sync.Mutex

	nextID  uint32
	pending map[uint32]chan query.ResolveResponse
	pongs   chan struct{}

	// Retries e intervalo entre tentativas de conexão
	MaxRetries int
	RetryDelay time.Duration

	// Callbacks para o App
	OnStatus func(status *query.ServerStatus)
}

func NewNetworkClient(url string) *NetworkClient {
	return &NetworkClient{
		url:        url,
		pending:    make(map[uint32]chan query.ResolveResponse),
		pongs:      make(chan struct{}, 1),
		MaxRetries: 10,
		RetryDelay: 2 * time.Second,
	}
}

func (c *NetworkClient) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	var (
		conn *websocket.Conn
		err  error
	)
	retries := max(1, c.MaxRetries)
	for i := 0; i < retries; i++ {
		log.Printf("[Network] Tentativa de conexão %d/%d em %s...", i+1, retries, c.url)
		conn, _, err = dialer.DialContext(ctx, c.url, nil)
		if err == nil {
			break
		}
		log.Printf("[Network] Servidor ainda não está pronto: %v. Aguardando...", err)
		if i == retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.RetryDelay):
		}
	}
	if err != nil {
		log.Printf("[Network] ERRO CRÍTICO após %d tentativas: %v", retries, err)
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

func (c *NetworkClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close encerra a conexão; consultas pendentes recebem ErrNotConnected.
func (c *NetworkClient) Close() error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return conn.Close()
}

func (c *NetworkClient) Send(msgType query.EnvelopeType, msg query.Message) error {
	c.mu.RLock()
	conn, ok := c.conn, c.connected
	c.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	err := conn.WriteMessage(websocket.BinaryMessage, query.Wrap(msgType, msg))
	c.writeMu.Unlock()
	if err != nil {
		log.Printf("[Network] Erro ao enviar mensagem: %v", err)
		return err
	}
	return nil
}

// Resolve pergunta ao servidor qual modelo usar para path na classe shape.
func (c *NetworkClient) Resolve(ctx context.Context, shape int32, path string) (*query.ResolveResponse, error) {
	ch := make(chan query.ResolveResponse, 1)

	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	c.nextID++
	id := c.nextID
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.Send(query.EnvelopeResolveRequest, &query.ResolveRequest{ID: id, Shape: shape, Path: path}); err != nil {
		return nil, err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrNotConnected
		}
		if resp.Error != "" {
			return &resp, fmt.Errorf("servidor: %s", resp.Error)
		}
		return &resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ping envia PING e espera o PONG.
func (c *NetworkClient) Ping(ctx context.Context) error {
	if err := c.Send(query.EnvelopePing, nil); err != nil {
		return err
	}
	select {
	case <-c.pongs:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *NetworkClient) readLoop(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		c.connected = false
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		c.mu.Unlock()
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure) {
				log.Printf("[Network] Conexão perdida: %v", err)
			}
			return
		}

		var env query.Envelope
		if err := env.Unmarshal(message); err != nil {
			log.Printf("[Network] Erro ao desempacotar envelope: %v", err)
			continue
		}
		c.handleMessage(&env)
	}
}

func (c *NetworkClient) handleMessage(env *query.Envelope) {
	switch env.Type {
	case query.EnvelopePong:
		select {
		case c.pongs <- struct{}{}:
		default:
		}
	case query.EnvelopeServerStatus:
		var st query.ServerStatus
		if err := st.Unmarshal(env.Payload); err != nil {
			log.Printf("[Network] Erro ao ler ServerStatus: %v", err)
			return
		}
		log.Printf("[Network] Status: %s (%d modelos, %d páginas)", st.Message, st.Models, st.Pages)
		if c.OnStatus != nil {
			c.OnStatus(&st)
		}
	case query.EnvelopeResolveResponse:
		var resp query.ResolveResponse
		if err := resp.Unmarshal(env.Payload); err != nil {
			log.Printf("[Network] Erro ao ler ResolveResponse: %v", err)
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
		if !ok {
			log.Printf("[Network] Resposta %d sem consulta pendente", resp.ID)
			return
		}
		ch <- resp
	default:
		log.Printf("[Network] Tipo de mensagem ignorado: %s", env.Type)
	}
}
