// Package markdown renders post bodies and markdown HTML blocks with goldmark
// and reads front matter from imported markdown posts.
package markdown
