// ABOUTME: Block-tree markdown document model for content adaptation
// ABOUTME: Blocks are addressed by heading slug, never by raw substring matching
package personalize

import (
	"strings"

	"github.com/harper/bookbrain/internal/chunker"
)

// Block is one node of a parsed markdown document. A heading block carries its
// section body; a level-0 block is prose appearing before the first heading.
type Block struct {
	Level   int    // 0 for leading prose, 1-6 for headings
	Heading string // raw heading text, empty for leading prose
	Slug    string // stable heading identity, empty for leading prose
	Body    string // content under the heading, heading line excluded
}

// Document is an ordered sequence of blocks that renders back to markdown
type Document struct {
	Blocks []Block
}

// ParseDocument splits markdown into heading-addressed blocks. Content before
// the first heading becomes a level-0 block so nothing is lost in a round trip.
func ParseDocument(content string) *Document {
	doc := &Document{}
	var current *Block

	flush := func() {
		if current != nil {
			current.Body = strings.TrimRight(current.Body, "\n")
			doc.Blocks = append(doc.Blocks, *current)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if level, heading, ok := parseHeading(line); ok {
			flush()
			current = &Block{Level: level, Heading: heading, Slug: chunker.Slugify(heading)}
			continue
		}
		if current == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			current = &Block{Level: 0}
		}
		current.Body += line + "\n"
	}
	flush()
	return doc
}

func parseHeading(line string) (level int, heading string, ok bool) {
	i := 0
	for i < len(line) && line[i] == '#' {
		i++
	}
	if i == 0 || i > 6 || i >= len(line) || line[i] != ' ' {
		return 0, "", false
	}
	heading = strings.TrimSpace(line[i+1:])
	if heading == "" {
		return 0, "", false
	}
	return i, heading, true
}

// Render reassembles the document into markdown
func (d *Document) Render() string {
	var sb strings.Builder
	for i, b := range d.Blocks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if b.Level > 0 {
			sb.WriteString(strings.Repeat("#", b.Level))
			sb.WriteByte(' ')
			sb.WriteString(b.Heading)
			if b.Body != "" {
				sb.WriteString("\n\n")
			}
		}
		sb.WriteString(strings.TrimSpace(b.Body))
	}
	return sb.String()
}

func (d *Document) find(slug string) int {
	for i, b := range d.Blocks {
		if b.Level > 0 && b.Slug == slug {
			return i
		}
	}
	return -1
}

// sectionEnd returns the index just past the last block belonging to the
// section starting at blocks[start]: subsections (deeper headings) stay inside.
func (d *Document) sectionEnd(start int) int {
	level := d.Blocks[start].Level
	for i := start + 1; i < len(d.Blocks); i++ {
		if d.Blocks[i].Level > 0 && d.Blocks[i].Level <= level {
			return i
		}
	}
	return len(d.Blocks)
}

func (d *Document) insertAt(i int, b Block) {
	d.Blocks = append(d.Blocks, Block{})
	copy(d.Blocks[i+1:], d.Blocks[i:])
	d.Blocks[i] = b
}

// Prepend inserts content at the start of the document
func (d *Document) Prepend(content string) {
	d.insertAt(0, Block{Level: 0, Body: content})
}

// InsertBefore places content immediately before the heading with the given
// slug. Returns false when no such heading exists.
func (d *Document) InsertBefore(headingSlug, content string) bool {
	i := d.find(headingSlug)
	if i < 0 {
		return false
	}
	d.insertAt(i, Block{Level: 0, Body: content})
	return true
}

// InsertAfter places content at the end of the section owned by the heading
// with the given slug, after any subsections. Returns false when no such
// heading exists.
func (d *Document) InsertAfter(headingSlug, content string) bool {
	i := d.find(headingSlug)
	if i < 0 {
		return false
	}
	d.insertAt(d.sectionEnd(i), Block{Level: 0, Body: content})
	return true
}

// Replace swaps the body of the heading's own block, leaving subsections
// untouched. Returns false when no such heading exists.
func (d *Document) Replace(headingSlug, content string) bool {
	i := d.find(headingSlug)
	if i < 0 {
		return false
	}
	d.Blocks[i].Body = content
	return true
}
