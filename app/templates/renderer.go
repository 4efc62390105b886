package templates

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/valyala/fasttemplate"
)

const (
	startTag  = "{{"
	endTag    = "}}"
	extension = ".html"
)

var ErrTemplateNotFound = errors.New("template not found")

//go:embed email
var embedded embed.FS

// Renderer holds the template bodies keyed by id ("auth/email-verification-request").
// Bodies are read once and never modified afterwards.
type Renderer struct {
	bodies map[string]string
}

// NewRenderer loads templates from dir, or from the embedded set when dir is empty.
func NewRenderer(dir string) (*Renderer, error) {
	if dir != "" {
		return NewRendererFromFS(os.DirFS(dir))
	}
	sub, err := fs.Sub(embedded, "email")
	if err != nil {
		return nil, fmt.Errorf("open embedded templates: %w", err)
	}
	return NewRendererFromFS(sub)
}

// NewRendererFromFS loads every *.html file in fsys.
func NewRendererFromFS(fsys fs.FS) (*Renderer, error) {
	bodies := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != extension {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read template %s: %w", p, err)
		}
		bodies[strings.TrimSuffix(p, extension)] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return &Renderer{bodies: bodies}, nil
}

// Has reports whether a template with the given id is loaded.
func (r *Renderer) Has(id string) bool {
	_, ok := r.bodies[id]
	return ok
}

// Render substitutes every {{key}} token found in values. Tokens without a
// value are written back unchanged and substituted values are not rescanned.
func (r *Renderer) Render(id string, values map[string]string) (string, error) {
	body, ok := r.bodies[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}

	return fasttemplate.ExecuteFuncString(body, startTag, endTag, func(w io.Writer, tag string) (int, error) {
		if value, ok := values[tag]; ok {
			return io.WriteString(w, value)
		}
		return io.WriteString(w, startTag+tag+endTag)
	}), nil
}
