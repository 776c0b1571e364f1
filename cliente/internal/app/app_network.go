package app

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"net/url"
	"slices"
	"time"

	"FortressModels/cliente/internal/client"
	"FortressModels/shared/catalog"
	"FortressModels/shared/model"
	"FortressModels/shared/proto/query"
)

// connectServer tenta conectar ao servidor de consultas.
func (a *App) connectServer(ctx context.Context) error {
	a.netClient = client.NewNetworkClient(a.Config.ServerURL)
	a.netClient.OnStatus = func(st *query.ServerStatus) {
		a.status = st.Message
	}
	if err := a.netClient.Connect(ctx); err != nil {
		return fmt.Errorf("falha ao conectar em %s: %w", a.Config.ServerURL, err)
	}
	return nil
}

// resolveModel consulta o servidor e reconstrói o modelo recebido.
func (a *App) resolveModel(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := a.netClient.Resolve(ctx, int32(a.Shape), a.Path)
	if err != nil {
		return err
	}
	m, err := resp.ToModel()
	if err != nil {
		return fmt.Errorf("resposta inválida: %w", err)
	}
	a.resp = resp
	a.model = m
	log.Printf("[App] %s %q -> modelo %d (%s): %s",
		a.Shape, a.Path, resp.ModelIndex, catalog.MatchKind(resp.Match), m)
	return nil
}

// usedPages lista as páginas do atlas referenciadas pelo modelo.
func usedPages(m *model.CompiledModel) []int {
	if m == nil {
		return nil
	}
	var pages []int
	for _, p := range m.Primitives {
		if !slices.Contains(pages, p.Texture.Page) {
			pages = append(pages, p.Texture.Page)
		}
	}
	slices.Sort(pages)
	return pages
}

// atlasURL deriva o endereço HTTP da página a partir da URL do WebSocket.
func atlasURL(serverURL string, page int) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("URL do servidor inválida %q: %w", serverURL, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("esquema não suportado %q", u.Scheme)
	}
	u.Path = fmt.Sprintf("/atlas/%d.png", page)
	u.RawQuery = ""
	return u.String(), nil
}

// fetchPages baixa as páginas indicadas. O slice retornado é indexado pelo
// número da página; páginas não pedidas ficam nil.
func fetchPages(ctx context.Context, serverURL string, pages []int) ([]image.Image, error) {
	if len(pages) == 0 {
		return nil, nil
	}
	out := make([]image.Image, slices.Max(pages)+1)
	for _, page := range pages {
		addr, err := atlasURL(serverURL, page)
		if err != nil {
			return nil, err
		}
		img, err := fetchPage(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("página %d: %w", page, err)
		}
		out[page] = img
	}
	return out, nil
}

func fetchPage(ctx context.Context, addr string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", addr, resp.Status)
	}
	return png.Decode(resp.Body)
}
