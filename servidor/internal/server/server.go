// Package server expõe o catálogo compilado por WebSocket (consultas de
// modelo) e HTTP (páginas do atlas em PNG).
package server

import (
	"bytes"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"FortressModels/shared/catalog"
	"FortressModels/shared/ident"
	"FortressModels/shared/pipeline"
	"FortressModels/shared/proto/query"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server responde consultas sobre um resultado de build.
type Server struct {
	hub    *Hub
	logger *log.Logger

	mu    sync.RWMutex
	res   *pipeline.Result
	pages map[int][]byte // PNGs já codificados
}

// New cria o servidor e inicia o hub.
func New(res *pipeline.Result, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		hub:    newHub(logger),
		logger: logger,
		res:    res,
		pages:  make(map[int][]byte),
	}
	go s.hub.run()
	return s
}

// Close desconecta todos os clientes.
func (s *Server) Close() {
	s.hub.stop()
}

// Handler retorna as rotas /ws e /atlas/{página}.png.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	mux.HandleFunc("GET /atlas/{file}", s.serveAtlasPage)
	return mux
}

// SetResult troca o catálogo servido e avisa os clientes conectados.
func (s *Server) SetResult(res *pipeline.Result) {
	s.mu.Lock()
	s.res = res
	s.pages = make(map[int][]byte)
	s.mu.Unlock()

	s.logger.Printf("[Server] Catálogo recarregado: %d modelos", res.Registry.Len())
	s.hub.Broadcast(query.Wrap(query.EnvelopeServerStatus, s.status("Catálogo recarregado")))
}

func (s *Server) result() *pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.res
}

func (s *Server) status(msg string) *query.ServerStatus {
	res := s.result()
	st := &query.ServerStatus{Message: msg}
	if res != nil {
		st.Models = uint32(res.Registry.Len())
		if res.Atlas != nil {
			st.Pages = uint32(len(res.Atlas.Pages))
			st.PageSize = uint32(res.Atlas.PageSize)
		}
	}
	return st
}

// serveWs maneja requisições websocket do peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[Server] Erro no upgrade do WebSocket: %v", err)
		return
	}
	if !s.hub.Register(conn) {
		conn.Close()
		return
	}

	s.send(conn, query.EnvelopeServerStatus, s.status("Conectado ao Servidor FortressModels"))

	go func() {
		defer s.hub.Unregister(conn)

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Printf("[Server] Erro ao ler mensagem: %v", err)
				}
				return
			}

			var env query.Envelope
			if err := env.Unmarshal(message); err != nil {
				s.logger.Printf("[Server] Erro ao desempacotar envelope: %v", err)
				continue
			}
			s.handleClientMessage(conn, &env)
		}
	}()
}

func (s *Server) handleClientMessage(conn *websocket.Conn, env *query.Envelope) {
	switch env.Type {
	case query.EnvelopePing:
		s.send(conn, query.EnvelopePong, nil)
	case query.EnvelopeResolveRequest:
		var req query.ResolveRequest
		if err := req.Unmarshal(env.Payload); err != nil {
			s.logger.Printf("[Server] Erro ao ler ResolveRequest: %v", err)
			return
		}
		resp := s.Resolve(&req)
		s.send(conn, query.EnvelopeResolveResponse, &resp)
	default:
		s.logger.Printf("[Server] Tipo de mensagem ignorado: %s", env.Type)
	}
}

// Resolve executa a consulta no catálogo da classe pedida, memoizando a chave.
func (s *Server) Resolve(req *query.ResolveRequest) query.ResolveResponse {
	resp := query.ResolveResponse{ID: req.ID, Match: int32(catalog.Missing)}

	res := s.result()
	if res == nil {
		resp.Error = "nenhum catálogo carregado"
		return resp
	}
	c := res.Registry.Catalog(catalog.Shape(req.Shape))
	if c == nil {
		resp.Error = fmt.Sprintf("classe de forma inválida %d", req.Shape)
		return resp
	}

	path := ident.Parse(req.Path)
	m, kind := c.ModelAndCache(path)
	idx, _ := c.ModelID(path)

	resp.Match = int32(kind)
	resp.ModelIndex = idx
	if m != nil {
		resp.Transparent = m.Transparent
		resp.Primitives = query.FromModel(m)
	}
	return resp
}

func (s *Server) send(conn *websocket.Conn, t query.EnvelopeType, msg query.Message) {
	if err := s.hub.WriteSafe(conn, websocket.BinaryMessage, query.Wrap(t, msg)); err != nil {
		s.logger.Printf("[Server] Erro ao enviar %s: %v", t, err)
	}
}

// serveAtlasPage entrega /atlas/{n}.png.
func (s *Server) serveAtlasPage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	num, ok := strings.CutSuffix(name, ".png")
	page, err := strconv.Atoi(num)
	if !ok || err != nil || page < 0 {
		http.Error(w, "página inválida", http.StatusBadRequest)
		return
	}

	data, err := s.atlasPage(page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (s *Server) atlasPage(page int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data, ok := s.pages[page]; ok {
		return data, nil
	}
	if s.res == nil || s.res.Atlas == nil || page >= len(s.res.Atlas.Pages) {
		return nil, fmt.Errorf("página %d não existe", page)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.res.Atlas.Pages[page]); err != nil {
		return nil, fmt.Errorf("falha ao codificar página %d: %w", page, err)
	}
	s.pages[page] = buf.Bytes()
	return buf.Bytes(), nil
}
