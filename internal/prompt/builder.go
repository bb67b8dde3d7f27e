package prompt

import (
	"sort"
	"strings"
)

const rule = "--------------------"

// Block is one section of a system prompt. Blocks with a Title are rendered
// under a ruled heading.
type Block struct {
	ID       string
	Priority int
	Title    string
	Content  string
}

type Builder struct {
	blocks []Block
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Add(block Block) {
	if strings.TrimSpace(block.Content) == "" {
		return
	}
	b.blocks = append(b.blocks, block)
}

// Build joins blocks by descending priority; ties keep ID order.
func (b *Builder) Build() string {
	if len(b.blocks) == 0 {
		return ""
	}
	blocks := make([]Block, len(b.blocks))
	copy(blocks, b.blocks)
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Priority == blocks[j].Priority {
			return blocks[i].ID < blocks[j].ID
		}
		return blocks[i].Priority > blocks[j].Priority
	})

	var sb strings.Builder
	for i, block := range blocks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if block.Title != "" {
			sb.WriteString(rule + "\n" + strings.ToUpper(block.Title) + "\n" + rule + "\n")
		}
		sb.WriteString(strings.TrimSpace(block.Content))
	}
	return sb.String()
}
