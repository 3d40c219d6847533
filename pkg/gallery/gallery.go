// Package gallery turns image-search results into thumbnail jobs.
package gallery

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/imagehunter/pkg/download"
	pkgerrors "github.com/glorpus-work/imagehunter/pkg/errors"
)

// MaxLineLength is the longest line accepted in a plain-text manifest.
const MaxLineLength = 1 << 20

const itemsKey = "items"

// LoadManifest reads items from r. A manifest is YAML (a block or flow
// sequence of items, or a mapping with an "items" sequence) or plain text
// with one thumbnail URL per line. Blank lines and lines starting with '#'
// are ignored in both forms.
func LoadManifest(r io.Reader) ([]Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrManifestParse, err)
	}

	first := firstSignificantLine(data)
	if first == "" {
		return nil, nil
	}
	switch {
	case first == "-" || strings.HasPrefix(first, "- ") || strings.HasPrefix(first, "-\t"),
		strings.HasPrefix(first, "["):
		return parseYAML(data)
	case strings.HasPrefix(first, itemsKey+":"):
		return parseYAMLDocument(data)
	}
	return parseLines(data)
}

func parseYAML(data []byte) ([]Item, error) {
	var items []Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrManifestParse, err)
	}
	return items, nil
}

func parseYAMLDocument(data []byte) ([]Item, error) {
	var doc struct {
		Items []Item `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrManifestParse, err)
	}
	return doc.Items, nil
}

func parseLines(data []byte) ([]Item, error) {
	var items []Item
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), MaxLineLength)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, Item{ThumbnailURL: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: line %d: %w", pkgerrors.ErrManifestParse, lineNo+1, err)
	}
	return items, nil
}

func firstSignificantLine(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || line == "---" {
			continue
		}
		return line
	}
	return ""
}

// FromURLs wraps bare thumbnail URLs as items.
func FromURLs(urls []string) []Item {
	items := make([]Item, 0, len(urls))
	for _, u := range urls {
		items = append(items, Item{ThumbnailURL: strings.TrimSpace(u)})
	}
	return items
}

// Jobs converts items to scheduler jobs. The job index is the item's position
// in items, so outcomes can be matched back; items without a thumbnail URL
// produce no job.
func Jobs(items []Item) []download.Job {
	jobs := make([]download.Job, 0, len(items))
	for i, item := range items {
		if item.ThumbnailURL == "" {
			continue
		}
		jobs = append(jobs, download.Job{Index: i, URL: item.ThumbnailURL})
	}
	return jobs
}
