package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// linkAttrs lists the attributes holding document-relative resources.
var linkAttrs = map[atom.Atom]string{
	atom.Img:    "src",
	atom.A:      "href",
	atom.Source: "src",
	atom.Object: "data",
}

// AbsolutizePaths rewrites document-relative links of an HTML page or
// fragment into file:// URLs under dir, so the markup still resolves once
// it is loaded from elsewhere (a temp file printed to PDF). Paths escaping
// dir are left as they are. An empty dir returns the input unchanged.
func AbsolutizePaths(content, dir string) (string, error) {
	if dir == "" {
		return content, nil
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	nodes, err := parse(content)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, n := range nodes {
		walk(n, func(el *html.Node) { absolutize(el, root) })
		if err := html.Render(&b, n); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// parse returns either the whole document or the fragment's top nodes,
// so fragments render back without an <html><body> wrapper.
func parse(content string) ([]*html.Node, error) {
	head := strings.ToLower(strings.TrimSpace(content))
	if strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		if err != nil {
			return nil, err
		}
		return []*html.Node{doc}, nil
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	return html.ParseFragment(strings.NewReader(content), body)
}

func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func absolutize(el *html.Node, root string) {
	key, ok := linkAttrs[el.DataAtom]
	if !ok {
		return
	}
	for i, attr := range el.Attr {
		if attr.Key != key || !isDocumentRelative(attr.Val) {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(attr.Val))
		if !within(target, root) {
			continue
		}
		el.Attr[i].Val = fileURL(target)
	}
}

// isDocumentRelative excludes anchors, URLs with a scheme, protocol
// relative URLs and absolute paths.
func isDocumentRelative(ref string) bool {
	switch {
	case ref == "", strings.HasPrefix(ref, "#"), strings.HasPrefix(ref, "//"):
		return false
	case filepath.IsAbs(ref), strings.HasPrefix(ref, "/"):
		return false
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return false
	}
	return true
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func fileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // C:/docs -> /C:/docs
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
