package interfaces

// MarkdownRenderer converts markdown source into HTML.
type MarkdownRenderer interface {
	Render(source []byte) ([]byte, error)
}
