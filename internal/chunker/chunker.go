// ABOUTME: Splits markdown documents into heading-delimited sections and retrievable chunks
// ABOUTME: Chunk and section IDs are deterministic so re-ingesting unchanged content is idempotent
package chunker

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/harper/bookbrain/internal/models"
)

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	nonSlugRe  = regexp.MustCompile(`[^\w\s-]`)
	collapseRe = regexp.MustCompile(`[-\s]+`)
)

// Section is one heading-delimited block of a markdown document
type Section struct {
	SectionID  string
	Title      string
	Level      int
	SourcePath string
	Content    string
}

// Chunker splits documents into sections, then oversized sections into
// overlapping word-bounded chunks
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a Chunker. Defaults match the platform configuration
// (1000-char chunks, 100-char overlap) when given non-positive values.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Slugify lowercases, strips characters outside word/space/hyphen, and
// collapses runs of spaces and hyphens into a single hyphen. These exact rules
// are the section ID stability contract; do not change them casually.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugRe.ReplaceAllString(s, "")
	s = collapseRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SectionID derives the stable section identifier for a heading within a file.
// relPath is relative to the docs root, forward slashes, extension included.
func SectionID(relPath, title string) string {
	path := filepath.ToSlash(relPath)
	path = strings.TrimSuffix(path, filepath.Ext(path))
	return path + "#" + Slugify(title)
}

// ExtractSections scans a markdown document for heading lines. Each heading
// starts a new section; lines until the next heading (of any level) belong to
// it. Content before the first heading is dropped, matching the platform's
// historical behavior. Sections with no non-whitespace content are discarded.
func (c *Chunker) ExtractSections(content, relPath string) []Section {
	var (
		sections []Section
		current  *Section
		buf      []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(buf, "\n"))
		if current.Content != "" {
			sections = append(sections, *current)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			buf = append(buf, line)
			continue
		}
		flush()
		title := strings.TrimSpace(m[2])
		current = &Section{
			SectionID:  SectionID(relPath, title),
			Title:      title,
			Level:      len(m[1]),
			SourcePath: filepath.ToSlash(relPath),
		}
		buf = buf[:0]
	}
	flush()

	return sections
}

// ChunkSection splits one section into chunks. Sections at or under the chunk
// size become a single chunk; larger ones are split on word boundaries with an
// approximate word-count overlap (chunkOverlap/5 words) carried between chunks.
// Every chunk's TotalChunks is back-filled once the final count is known.
func (c *Chunker) ChunkSection(sec Section) []models.Chunk {
	meta := models.ChunkMetadata{
		Title:        sec.Title,
		HeadingLevel: sec.Level,
		SourcePath:   sec.SourcePath,
		Language:     "en",
	}
	meta.Module, meta.Difficulty = PathMetadata(sec.SourcePath)

	if len(sec.Content) <= c.chunkSize {
		meta.ChunkIndex = 0
		meta.TotalChunks = 1
		return []models.Chunk{{
			SectionID: sec.SectionID,
			ChunkID:   sec.SectionID + "-0",
			Content:   sec.Content,
			Metadata:  meta,
		}}
	}

	var (
		chunks     []models.Chunk
		words      = strings.Fields(sec.Content)
		chunkWords []string
		chunkIndex int
	)
	overlapWords := c.chunkOverlap / 5 // approximate word-count overlap

	for i, word := range words {
		chunkWords = append(chunkWords, word)
		if joinedLen(chunkWords) < c.chunkSize && i != len(words)-1 {
			continue
		}

		m := meta
		m.ChunkIndex = chunkIndex
		chunks = append(chunks, models.Chunk{
			SectionID: sec.SectionID,
			ChunkID:   sec.SectionID + "-" + strconv.Itoa(chunkIndex),
			Content:   strings.Join(chunkWords, " "),
			Metadata:  m,
		})

		// Carry the tail of this chunk into the next as a soft continuity window
		if overlapWords > 0 && overlapWords < len(chunkWords) {
			chunkWords = append([]string(nil), chunkWords[len(chunkWords)-overlapWords:]...)
		} else {
			chunkWords = nil
		}
		chunkIndex++
	}

	for i := range chunks {
		chunks[i].Metadata.TotalChunks = len(chunks)
	}
	return chunks
}

// ChunkDocument converts one markdown document into its chunk sequence
func (c *Chunker) ChunkDocument(content, relPath string) []models.Chunk {
	var all []models.Chunk
	for _, sec := range c.ExtractSections(content, relPath) {
		all = append(all, c.ChunkSection(sec)...)
	}
	return all
}

// joinedLen is len(strings.Join(words, " ")) without building the string
func joinedLen(words []string) int {
	if len(words) == 0 {
		return 0
	}
	n := len(words) - 1
	for _, w := range words {
		n += len(w)
	}
	return n
}

// PathMetadata derives module and difficulty from a file's path under the
// docs root. Unknown areas default to the first path element at intermediate
// difficulty.
func PathMetadata(relPath string) (module, difficulty string) {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "general", "intermediate"
	}

	switch parts[0] {
	case "foundations":
		return "foundations", "beginner"
	case "modules":
		if len(parts) >= 2 {
			return parts[1], "intermediate"
		}
		return "modules", "intermediate"
	case "hardware":
		return "hardware", "beginner"
	case "capstone":
		return "capstone", "advanced"
	case "ai-features":
		return "ai-features", "advanced"
	case "meta":
		return "meta", "beginner"
	}
	return parts[0], "intermediate"
}
