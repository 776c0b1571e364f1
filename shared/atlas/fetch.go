package atlas

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"

	"github.com/anthonynsimon/bild/clone"
	"github.com/go-git/go-billy/v5"
	_ "golang.org/x/image/bmp"
	"golang.org/x/sync/errgroup"
)

// Pending representa uma carga de texturas em andamento.
type Pending struct {
	done   chan struct{}
	images []image.Image
	err    error
}

// Fetch começa a carregar paths (relativos à raiz de fs) em até workers
// goroutines e retorna imediatamente. Use Wait para aguardar o resultado.
func Fetch(ctx context.Context, fs billy.Filesystem, paths []string, workers int, logger *log.Logger) *Pending {
	if logger == nil {
		logger = log.Default()
	}
	p := &Pending{
		done:   make(chan struct{}),
		images: make([]image.Image, len(paths)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))

	go func() {
		defer close(p.done)
		for i, path := range paths {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				img, err := decode(fs, path)
				if err != nil {
					return fmt.Errorf("falha ao carregar textura %s: %w", path, err)
				}
				p.images[i] = img
				return nil
			})
		}
		p.err = g.Wait()
		if p.err == nil {
			logger.Printf("[Atlas] %d texturas carregadas", len(paths))
		}
	}()
	return p
}

// Wait bloqueia até todas as texturas estarem decodificadas.
// Qualquer falha de carga é fatal para o build.
func (p *Pending) Wait(ctx context.Context) ([]image.Image, error) {
	select {
	case <-p.done:
		if p.err != nil {
			return nil, p.err
		}
		return p.images, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func decode(fs billy.Filesystem, path string) (image.Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return clone.AsRGBA(img), nil
}
