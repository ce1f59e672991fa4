// Package archive reads pak archives for display.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"
)

// MetadataField is one key of the archive metadata, in document order.
type MetadataField struct {
	Key   string
	Value gjson.Result
}

// File is one entry of the archive's file list.
type File struct {
	Path           string
	OriginalSize   int64
	CompressedSize int64
	Tokens         int64
	Content        string
}

// Ratio is compressed size over original size, or 1 for empty files.
func (f File) Ratio() float64 {
	if f.OriginalSize <= 0 {
		return 1.0
	}
	return float64(f.CompressedSize) / float64(f.OriginalSize)
}

// Archive is a parsed pak archive.
type Archive struct {
	Path     string
	Metadata []MetadataField
	Files    []File
	// Plain is set when the archive was not JSON and was loaded as text.
	Plain bool
	// Size is the archive size in bytes.
	Size int64
}

// Load reads the archive at path.
func Load(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return Parse(path, data), nil
}

// Parse decodes a pak archive. Data that is not a JSON object is kept as a
// single plain-text file.
func Parse(path string, data []byte) *Archive {
	a := &Archive{Path: path, Size: int64(len(data))}

	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		a.Plain = true
		a.Files = []File{{
			Path:           filepath.Base(path),
			OriginalSize:   int64(len(data)),
			CompressedSize: int64(len(data)),
			Content:        string(data),
		}}
		return a
	}

	doc := gjson.ParseBytes(data)
	doc.Get("metadata").ForEach(func(key, value gjson.Result) bool {
		a.Metadata = append(a.Metadata, MetadataField{Key: key.String(), Value: value})
		return true
	})

	for i, f := range doc.Get("files").Array() {
		p := f.Get("path").String()
		if p == "" {
			p = fmt.Sprintf("file_%d", i)
		}
		a.Files = append(a.Files, File{
			Path:           p,
			OriginalSize:   f.Get("original_size_bytes").Int(),
			CompressedSize: f.Get("compressed_size_bytes").Int(),
			Tokens:         f.Get("estimated_tokens").Int(),
			Content:        f.Get("content").String(),
		})
	}
	return a
}

var metadataLabels = map[string]string{
	"creation_timestamp_utc":      "Created",
	"pak_format_version":          "Format",
	"total_files":                 "Files",
	"total_original_size_bytes":   "Original Size",
	"total_compressed_size_bytes": "Compressed Size",
	"total_estimated_tokens":      "Estimated Tokens",
	"compression_level_setting":   "Compression",
}

// MetadataLines renders the metadata pane.
func (a *Archive) MetadataLines() []string {
	if a.Plain {
		return []string{
			"=== PLAIN TEXT ARCHIVE ===",
			"",
			"Size: " + humanize.Comma(a.Size) + " bytes",
			fmt.Sprintf("Lines: %s", humanize.Comma(int64(strings.Count(a.Files[0].Content, "\n")+1))),
		}
	}
	if len(a.Metadata) == 0 {
		return []string{"No metadata available"}
	}

	lines := []string{"=== PAK ARCHIVE METADATA ===", ""}
	for _, m := range a.Metadata {
		label, ok := metadataLabels[m.Key]
		if !ok {
			lines = append(lines, fmt.Sprintf("%s: %s", m.Key, m.Value.String()))
			continue
		}
		switch m.Key {
		case "total_original_size_bytes", "total_compressed_size_bytes":
			lines = append(lines, fmt.Sprintf("%s: %s bytes", label, humanize.Comma(m.Value.Int())))
		case "total_estimated_tokens":
			lines = append(lines, fmt.Sprintf("%s: %s", label, humanize.Comma(m.Value.Int())))
		default:
			lines = append(lines, fmt.Sprintf("%s: %s", label, m.Value.String()))
		}
	}
	return lines
}

// FileListLines renders the file list pane.
func (a *Archive) FileListLines() []string {
	if len(a.Files) == 0 {
		return []string{"No files in archive"}
	}

	lines := []string{"=== FILES IN ARCHIVE ===", ""}
	for _, f := range a.Files {
		lines = append(lines,
			f.Path,
			fmt.Sprintf("  Size: %s → %s bytes (%.2fx)", humanize.Comma(f.OriginalSize), humanize.Comma(f.CompressedSize), f.Ratio()),
			"  Tokens: "+humanize.Comma(f.Tokens),
			"",
		)
	}
	return lines
}

// ContentLines renders the content pane for file i.
func (a *Archive) ContentLines(i int) []string {
	if i < 0 || i >= len(a.Files) {
		return []string{"No file selected"}
	}
	f := a.Files[i]
	lines := []string{"=== " + f.Path + " ===", ""}
	return append(lines, strings.Split(f.Content, "\n")...)
}
