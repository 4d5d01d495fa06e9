package card

// Node is one element of a laid-out card, in paint order.
type Node interface {
	node()
}

// ClipShape restricts painting to a rounded rectangle or, with Circle set, the inscribed circle.
type ClipShape struct {
	ID     string
	X, Y   float64
	W, H   float64
	RX     float64
	Circle bool
}

// Group applies opacity, a vertical offset and an optional clip to its children.
type Group struct {
	ID         string
	Opacity    float64
	TranslateY float64
	Clip       *ClipShape
	Children   []Node
}

type Rect struct {
	ID   string
	X, Y float64
	W, H float64
	RX   float64
	Fill string
}

type Image struct {
	ID   string
	X, Y float64
	W, H float64
	Href string
	Clip *ClipShape
}

// Text is a single line; Y is the baseline.
type Text struct {
	ID       string
	X, Y     float64
	Content  string
	FontSize float64
	Weight   int
	Fill     string
}

func (*Group) node() {}
func (*Rect) node()  {}
func (*Image) node() {}
func (*Text) node()  {}

// Document is the resolved vector description of a card.
type Document struct {
	Width  float64
	Height float64
	Root   *Group
}

// Find returns the node with the given id, searching depth first.
func (d *Document) Find(id string) Node {
	if d == nil || d.Root == nil {
		return nil
	}
	return find(d.Root, id)
}

func find(n Node, id string) Node {
	switch v := n.(type) {
	case *Group:
		if v.ID == id {
			return v
		}
		for _, c := range v.Children {
			if found := find(c, id); found != nil {
				return found
			}
		}
	case *Rect:
		if v.ID == id {
			return v
		}
	case *Image:
		if v.ID == id {
			return v
		}
	case *Text:
		if v.ID == id {
			return v
		}
	}
	return nil
}

// Texts lists every text line in paint order.
func (d *Document) Texts() []*Text {
	var out []*Text
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *Group:
			for _, c := range v.Children {
				walk(c)
			}
		case *Text:
			out = append(out, v)
		}
	}
	if d != nil && d.Root != nil {
		walk(d.Root)
	}
	return out
}
