// Package store persiste o resultado de um build (catálogos, tabela de
// texturas e páginas do atlas) em um arquivo SQLite, para que o servidor
// possa responder consultas sem refazer o bake.
package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/anthonynsimon/bild/clone"
	"github.com/go-gl/mathgl/mgl32"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"FortressModels/shared/atlas"
	"FortressModels/shared/catalog"
	"FortressModels/shared/ident"
	"FortressModels/shared/model"
	"FortressModels/shared/pipeline"
)

// ModelRecord é um modelo compilado. As primitivas são serializadas em GOB.
type ModelRecord struct {
	Shape       int32  `gorm:"primaryKey;autoIncrement:false"`
	Index       uint32 `gorm:"primaryKey;autoIncrement:false"`
	Transparent bool
	Data        []byte
}

// BindingRecord liga um identificador a um modelo. Path vazio é o padrão da classe.
type BindingRecord struct {
	Shape int32  `gorm:"primaryKey;autoIncrement:false"`
	Path  string `gorm:"primaryKey"`
	Index uint32
}

// TextureRecord é uma entrada da tabela de texturas com o seu posicionamento.
type TextureRecord struct {
	Slot             int `gorm:"primaryKey;autoIncrement:false"`
	Path             string
	Page             int
	OffsetX, OffsetY float32
	ScaleX, ScaleY   float32
	Width, Height    uint32
}

// AtlasPageRecord guarda uma página do atlas em PNG.
type AtlasPageRecord struct {
	Page int `gorm:"primaryKey;autoIncrement:false"`
	Data []byte
}

// Metadata armazena informações globais do catálogo.
type Metadata struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// modelBlob é o conteúdo GOB de ModelRecord.Data.
type modelBlob struct {
	Primitives []model.Primitive
}

const CurrentFormatVersion = 1

// Store é um banco de catálogo aberto.
type Store struct {
	DB *gorm.DB
}

// Open abre (ou cria) o banco e roda as migrações.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no SQLite: %w", err)
	}

	if err := db.AutoMigrate(&ModelRecord{}, &BindingRecord{}, &TextureRecord{}, &AtlasPageRecord{}, &Metadata{}); err != nil {
		return nil, fmt.Errorf("falha na migração do banco: %w", err)
	}

	log.Printf("[Store] Banco de dados SQLite aberto: %s", path)
	return &Store{DB: db}, nil
}

// Close fecha a conexão.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save substitui todo o conteúdo do banco pelo resultado do build.
func (s *Store) Save(res *pipeline.Result) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for _, table := range []any{&ModelRecord{}, &BindingRecord{}, &TextureRecord{}, &AtlasPageRecord{}} {
			if err := tx.Where("1 = 1").Delete(table).Error; err != nil {
				return err
			}
		}

		for _, shape := range catalog.AllShapes() {
			c := res.Registry.Catalog(shape)
			for i, m := range c.Models() {
				var buf bytes.Buffer
				if err := gob.NewEncoder(&buf).Encode(modelBlob{Primitives: m.Primitives}); err != nil {
					return fmt.Errorf("falha ao serializar modelo %s/%d: %w", shape, i+1, err)
				}
				rec := ModelRecord{
					Shape:       int32(shape),
					Index:       uint32(i + 1),
					Transparent: m.Transparent,
					Data:        buf.Bytes(),
				}
				if err := tx.Create(&rec).Error; err != nil {
					return err
				}
			}

			var bindings []BindingRecord
			c.Bindings(func(path ident.Path, index uint32) {
				bindings = append(bindings, BindingRecord{Shape: int32(shape), Path: path.String(), Index: index})
			})
			if len(bindings) > 0 {
				if err := tx.Create(&bindings).Error; err != nil {
					return err
				}
			}
		}

		for i, path := range res.Textures {
			pl := res.Atlas.Placements[i]
			rec := TextureRecord{
				Slot:    i,
				Path:    path,
				Page:    pl.Page,
				OffsetX: pl.Offset[0],
				OffsetY: pl.Offset[1],
				ScaleX:  pl.Scale[0],
				ScaleY:  pl.Scale[1],
				Width:   pl.Width,
				Height:  pl.Height,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}

		for i, page := range res.Atlas.Pages {
			var buf bytes.Buffer
			if err := png.Encode(&buf, page); err != nil {
				return fmt.Errorf("falha ao codificar página %d: %w", i, err)
			}
			if err := tx.Create(&AtlasPageRecord{Page: i, Data: buf.Bytes()}).Error; err != nil {
				return err
			}
		}

		if err := tx.Save(&Metadata{Key: "FormatVersion", Value: strconv.Itoa(CurrentFormatVersion)}).Error; err != nil {
			return err
		}
		if err := tx.Save(&Metadata{Key: "PageSize", Value: strconv.Itoa(res.Atlas.PageSize)}).Error; err != nil {
			return err
		}
		log.Printf("[Store] Catálogo salvo: %d modelos, %d texturas, %d páginas", res.Registry.Len(), len(res.Textures), len(res.Atlas.Pages))
		return nil
	})
}

func (s *Store) meta(key string) (string, error) {
	var m Metadata
	if err := s.DB.First(&m, "key = ?", key).Error; err != nil {
		return "", fmt.Errorf("metadado %s ausente: %w", key, err)
	}
	return m.Value, nil
}

// Load reconstrói o resultado salvo.
func (s *Store) Load(l *log.Logger) (*pipeline.Result, error) {
	version, err := s.meta("FormatVersion")
	if err != nil {
		return nil, err
	}
	if version != strconv.Itoa(CurrentFormatVersion) {
		return nil, fmt.Errorf("versão de formato incompatível: %s (esperado %d)", version, CurrentFormatVersion)
	}
	pageSizeStr, err := s.meta("PageSize")
	if err != nil {
		return nil, err
	}
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil {
		return nil, fmt.Errorf("PageSize inválido %q: %w", pageSizeStr, err)
	}

	registry := catalog.NewRegistry(l)

	var models []ModelRecord
	if err := s.DB.Order("shape, `index`").Find(&models).Error; err != nil {
		return nil, err
	}
	for _, rec := range models {
		c := registry.Catalog(catalog.Shape(rec.Shape))
		if c == nil {
			return nil, fmt.Errorf("classe de forma inválida %d no banco", rec.Shape)
		}
		var blob modelBlob
		if err := gob.NewDecoder(bytes.NewReader(rec.Data)).Decode(&blob); err != nil {
			return nil, fmt.Errorf("falha ao ler modelo %d/%d: %w", rec.Shape, rec.Index, err)
		}
		idx := c.Append(&model.CompiledModel{Transparent: rec.Transparent, Primitives: blob.Primitives})
		if idx != rec.Index {
			return nil, fmt.Errorf("índices fora de sequência na classe %s: %d != %d", c.Shape(), idx, rec.Index)
		}
	}

	var bindings []BindingRecord
	if err := s.DB.Find(&bindings).Error; err != nil {
		return nil, err
	}
	for _, b := range bindings {
		c := registry.Catalog(catalog.Shape(b.Shape))
		if c == nil {
			return nil, fmt.Errorf("classe de forma inválida %d no banco", b.Shape)
		}
		if err := c.Bind(ident.Parse(b.Path), b.Index); err != nil {
			return nil, err
		}
	}

	var textures []TextureRecord
	if err := s.DB.Order("slot").Find(&textures).Error; err != nil {
		return nil, err
	}
	res := &pipeline.Result{
		Registry: registry,
		Atlas:    &atlas.Atlas{PageSize: pageSize},
	}
	for _, t := range textures {
		res.Textures = append(res.Textures, t.Path)
		res.Atlas.Placements = append(res.Atlas.Placements, model.Placement{
			Page:   t.Page,
			Offset: mgl32.Vec2{t.OffsetX, t.OffsetY},
			Scale:  mgl32.Vec2{t.ScaleX, t.ScaleY},
			Width:  t.Width,
			Height: t.Height,
		})
	}

	var pages []AtlasPageRecord
	if err := s.DB.Order("page").Find(&pages).Error; err != nil {
		return nil, err
	}
	for _, p := range pages {
		img, err := png.Decode(bytes.NewReader(p.Data))
		if err != nil {
			return nil, fmt.Errorf("falha ao ler página %d: %w", p.Page, err)
		}
		res.Atlas.Pages = append(res.Atlas.Pages, asRGBA(img))
	}

	log.Printf("[Store] Catálogo carregado: %d modelos, %d páginas", registry.Len(), len(res.Atlas.Pages))
	return res, nil
}

// AtlasPage retorna o PNG de uma página, sem decodificar.
func (s *Store) AtlasPage(page int) ([]byte, error) {
	var rec AtlasPageRecord
	if err := s.DB.First(&rec, "page = ?", page).Error; err != nil {
		return nil, err
	}
	return rec.Data, nil
}

func asRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	return clone.AsRGBA(img)
}
