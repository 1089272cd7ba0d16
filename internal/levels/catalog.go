package levels

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry уровень в каталоге. Next указывает на следующий по порядку.
type Entry struct {
	Name string // Имя файла без расширения
	Path string
	Next *Entry
}

// Load загружает уровень записи
func (e *Entry) Load() (*Content, error) { return Load(e.Path) }

// Catalog упорядоченный список уровней каталога
type Catalog struct {
	entries []*Entry
}

// NewCatalog читает *.yaml из dir и упорядочивает их по имени файла.
func NewCatalog(dir string) (*Catalog, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога уровней %s: %w", dir, err)
	}

	var names []string
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if ext := filepath.Ext(f.Name()); ext == ".yaml" || ext == ".yml" {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	c := &Catalog{entries: make([]*Entry, 0, len(names))}
	for _, n := range names {
		e := &Entry{
			Name: strings.TrimSuffix(n, filepath.Ext(n)),
			Path: filepath.Join(dir, n),
		}
		if len(c.entries) > 0 {
			c.entries[len(c.entries)-1].Next = e
		}
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// First первый уровень или nil
func (c *Catalog) First() *Entry {
	if len(c.entries) == 0 {
		return nil
	}
	return c.entries[0]
}

// Find ищет уровень по имени файла или по пути
func (c *Catalog) Find(name string) (*Entry, bool) {
	for _, e := range c.entries {
		if e.Name == name || e.Path == name {
			return e, true
		}
	}
	return nil, false
}

// Entries все уровни по порядку
func (c *Catalog) Entries() []*Entry { return c.entries }

func (c *Catalog) Len() int { return len(c.entries) }
