package raster

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// element is a parsed SVG element. Only the subset written by card.Document.SVG is understood.
type element struct {
	name     string
	attrs    map[string]string
	children []*element
	text     strings.Builder
}

func (e *element) attr(name string) string { return e.attrs[name] }

func (e *element) number(name string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(e.attrs[name]), 64)
	if err != nil {
		return 0
	}
	return v
}

// numberOr returns def when the attribute is absent or malformed.
func (e *element) numberOr(name string, def float64) float64 {
	raw, ok := e.attrs[name]
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return def
	}
	return v
}

// parseSVG builds the element tree and indexes clip paths by id.
func parseSVG(data []byte) (*element, map[string]*element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root *element
	var stack []*element
	clips := map[string]*element{}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse svg: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				el.attrs[a.Name.Local] = a.Value
			}
			if el.name == "clipPath" {
				clips[el.attr("id")] = el
			}
			if len(stack) == 0 {
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil || root.name != "svg" {
		return nil, nil, fmt.Errorf("parse svg: missing <svg> root")
	}
	return root, clips, nil
}

// clipRef extracts the id from url(#id).
func clipRef(value string) string {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "url(#") || !strings.HasSuffix(value, ")") {
		return ""
	}
	return value[len("url(#") : len(value)-1]
}

// translate reads translate(0 ty) or translate(tx, ty) and returns both offsets.
func translate(value string) (float64, float64) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "translate(") || !strings.HasSuffix(value, ")") {
		return 0, 0
	}
	fields := strings.FieldsFunc(value[len("translate("):len(value)-1], func(r rune) bool { return r == ' ' || r == ',' })
	var tx, ty float64
	if len(fields) > 0 {
		tx, _ = strconv.ParseFloat(fields[0], 64)
	}
	if len(fields) > 1 {
		ty, _ = strconv.ParseFloat(fields[1], 64)
	}
	return tx, ty
}
