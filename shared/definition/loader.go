package definition

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"FortressModels/shared/ident"
	"FortressModels/shared/model"
)

// DefaultStem é o nome de arquivo que define o modelo do próprio diretório.
const DefaultStem = "mod"

// Entry é uma definição encontrada sob uma raiz de classe de forma.
type Entry struct {
	Shape      string
	Path       ident.Path
	Definition *model.RawDefinition
}

// Loader lê definições de um sistema de arquivos billy (osfs em produção,
// memfs nos testes).
type Loader struct {
	fs     billy.Filesystem
	logger *log.Logger
}

// NewLoader cria um loader sobre fs. logger pode ser nil.
func NewLoader(fs billy.Filesystem, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{fs: fs, logger: logger}
}

// Read carrega a definição identificada por key ("wall/mod").
// Quando o arquivo não existe o erro satisfaz errors.Is(err, os.ErrNotExist).
func (l *Loader) Read(key string) (*model.RawDefinition, error) {
	file := key + Extension
	src, err := util.ReadFile(l.fs, file)
	if err != nil {
		return nil, &LoadError{File: file, Err: err}
	}
	return Parse(src, file, key)
}

// Exists informa se key tem um arquivo de definição.
func (l *Loader) Exists(key string) bool {
	_, err := l.fs.Stat(key + Extension)
	return err == nil
}

// LoadShape percorre a raiz de uma classe de forma. Raiz ausente não é erro:
// a classe simplesmente fica sem modelos.
func (l *Loader) LoadShape(shape string) ([]Entry, error) {
	info, err := l.fs.Stat(shape)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Printf("[Loader] Diretório %s ausente, classe sem modelos", shape)
			return nil, nil
		}
		return nil, fmt.Errorf("falha ao acessar %s: %w", shape, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s não é um diretório", shape)
	}

	entries, err := l.walk(shape, shape, nil)
	if err != nil {
		return nil, err
	}
	l.logger.Printf("[Loader] %s: %d definições", shape, len(entries))
	return entries, nil
}

// walk devolve as entradas do diretório e de seus filhos; cada nível monta
// a sua própria lista e o chamador concatena.
func (l *Loader) walk(shape, dir string, segments []string) ([]Entry, error) {
	infos, err := l.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar %s: %w", dir, err)
	}
	slices.SortFunc(infos, func(a, b os.FileInfo) int {
		return strings.Compare(a.Name(), b.Name())
	})

	var out []Entry
	for _, info := range infos {
		name := info.Name()
		full := path.Join(dir, name)

		if info.IsDir() {
			child := append(slices.Clip(segments), name)
			sub, err := l.walk(shape, full, child)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}

		if path.Ext(name) != Extension {
			continue
		}
		stem := strings.TrimSuffix(name, Extension)

		segs := slices.Clip(segments)
		if stem != DefaultStem {
			segs = append(segs, stem)
		}

		def, err := l.Read(strings.TrimSuffix(full, Extension))
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{
			Shape:      shape,
			Path:       ident.New(segs...),
			Definition: def,
		})
	}
	return out, nil
}
