package mesh

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Flags tune codec behavior.
type Flags uint32

const (
	// FlagEmbed bundles referenced binary resources inline.
	FlagEmbed Flags = 1 << iota
	// Flag32Bit forces single precision for transforms and times.
	Flag32Bit
)

// Info summarizes a stream without loading it.
type Info struct {
	Name       string
	Nodes      int
	Geometries int
	Animations int
	Vertices   int
	Primitives int
}

// Codec translates one on-disk format to and from a Mesh.
type Codec interface {
	Info(r io.Reader) (Info, error)
	Load(r io.Reader, flags Flags, async *Async) (*Mesh, error)
	Save(w io.Writer, m *Mesh, flags Flags, async *Async) error
}

var (
	codecsMu sync.RWMutex
	codecs   = make(map[string]Codec)
)

// RegisterCodec binds c to a file extension such as ".obj".
func RegisterCodec(ext string, c Codec) {
	codecsMu.Lock()
	defer codecsMu.Unlock()
	codecs[normalizeExt(ext)] = c
}

// LookupCodec returns the codec registered for ext.
func LookupCodec(ext string) (Codec, error) {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	c, ok := codecs[normalizeExt(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return c, nil
}

// Extensions lists the registered extensions in sorted order.
func Extensions() []string {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	exts := make([]string, 0, len(codecs))
	for ext := range codecs {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// InfoFile summarizes the file at path with the codec of its extension.
func InfoFile(path string) (Info, error) {
	c, err := LookupCodec(filepath.Ext(path))
	if err != nil {
		return Info{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open mesh: %w", err)
	}
	defer f.Close()
	return c.Info(f)
}

// LoadFile reads the file at path with the codec of its extension.
func LoadFile(path string, flags Flags, async *Async) (*Mesh, error) {
	c, err := LookupCodec(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mesh: %w", err)
	}
	defer f.Close()
	m, err := c.Load(f, flags, async)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

// SaveFile writes m to path with the codec of its extension.
func (m *Mesh) SaveFile(path string, flags Flags, async *Async) error {
	c, err := LookupCodec(filepath.Ext(path))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mesh: %w", err)
	}
	if err := c.Save(f, m, flags, async); err != nil {
		f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	return f.Close()
}

// Info summarizes the mesh the way codecs report streams.
func (m *Mesh) Info() Info {
	info := Info{
		Name:       m.name,
		Nodes:      len(m.nodes),
		Geometries: len(m.geometries),
		Animations: len(m.animations),
	}
	for _, g := range m.geometries {
		if pos := g.Attribute(AttributePosition, -1); pos != nil {
			info.Vertices += pos.size
		}
		info.Primitives += g.NumPrimitives()
	}
	return info
}
