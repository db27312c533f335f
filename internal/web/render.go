package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/wolfman30/salon-booking-board/internal/board"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/board.js
var boardJS []byte

const defaultTitle = "已滿時段查詢"

// Regions are the element ids whose inner HTML the live channel replaces.
var Regions = []string{
	"shop-name",
	"current-date",
	"time-slots",
	"contact-phone",
	"contact-line",
	"current-time",
}

// contactURL passes hrefs built for contacts through unescaped. Anything
// outside the schemes the viewer produces is neutralised.
func contactURL(href string) template.URL {
	for _, prefix := range []string{"tel:", "https://", "http://"} {
		if strings.HasPrefix(href, prefix) {
			return template.URL(href)
		}
	}
	return template.URL("#")
}

type renderer struct {
	tmpl *template.Template
}

func newRenderer() (*renderer, error) {
	tmpl, err := template.New("board").
		Funcs(template.FuncMap{"contactURL": contactURL, "pageTitle": pageTitle}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}
	return &renderer{tmpl: tmpl}, nil
}

func (r *renderer) page(w io.Writer, snap board.Snapshot) error {
	return r.tmpl.ExecuteTemplate(w, "page", snap)
}

// pageTitle is the plain-text document title for the live channel.
func pageTitle(snap board.Snapshot) string {
	if snap.Title != "" {
		return snap.Title
	}
	return defaultTitle
}

// regions renders the inner HTML of every live region.
func (r *renderer) regions(snap board.Snapshot) (map[string]string, error) {
	out := make(map[string]string, len(Regions))
	var buf bytes.Buffer
	for _, id := range Regions {
		buf.Reset()
		if err := r.tmpl.ExecuteTemplate(&buf, id, snap); err != nil {
			return nil, fmt.Errorf("web: render %s: %w", id, err)
		}
		out[id] = buf.String()
	}
	return out, nil
}
