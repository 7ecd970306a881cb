// Package jsonl reads and writes review corpora as JSON Lines.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/ingest"
)

const maxLineBytes = 1 << 20

// record is one line. Steam exports numeric ids, so id accepts both forms.
type record struct {
	ID      json.RawMessage `json:"id"`
	Text    string          `json:"text"`
	VotedUp *bool           `json:"voted_up"`
}

// Load reads raw reviews from a JSONL file. Malformed lines are logged to
// logger and skipped. A nil logger means log.Default().
func Load(path string, logger *log.Logger) ([]ingest.RawReview, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	defer f.Close()

	raws, err := Read(f, path, logger)
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, fmt.Errorf("no valid reviews found in %s", path)
	}
	return raws, nil
}

// Read decodes raw reviews from r. name identifies the source in warnings.
// Lines longer than maxLineBytes are skipped like malformed ones.
func Read(r io.Reader, name string, logger *log.Logger) ([]ingest.RawReview, error) {
	if logger == nil {
		logger = log.Default()
	}

	var raws []ingest.RawReview
	br := bufio.NewReaderSize(r, 64*1024)

	for lineNo := 1; ; lineNo++ {
		line, tooLong, err := readLine(br, maxLineBytes)
		if err == io.EOF {
			break
		}
		if err != nil {
			return raws, fmt.Errorf("read %s: %w", name, err)
		}
		if tooLong {
			logger.Printf("Warning: skipping line %d in %s: longer than %d bytes", lineNo, name, maxLineBytes)
			continue
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			logger.Printf("Warning: skipping malformed JSON at line %d in %s: %v", lineNo, name, err)
			continue
		}
		id, err := decodeID(rec.ID)
		if err != nil {
			logger.Printf("Warning: skipping line %d in %s: %v", lineNo, name, err)
			continue
		}
		raws = append(raws, ingest.RawReview{ID: id, Text: rec.Text, VotedUp: rec.VotedUp})
	}
	return raws, nil
}

// readLine returns the next line without its terminator. A line longer
// than limit is consumed entirely and flagged by the second result.
func readLine(br *bufio.Reader, limit int) ([]byte, bool, error) {
	var line []byte
	tooLong := false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if err == io.EOF && (len(line) > 0 || tooLong) {
				return line, tooLong, nil
			}
			return nil, false, err
		}
		if !tooLong {
			if len(line)+len(chunk) > limit {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, tooLong, nil
		}
	}
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("bad id: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("bad id %s: %w", raw, err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return "", fmt.Errorf("id %s is not an integer", n)
	}
	return n.String(), nil
}

// Write encodes reviews one per line.
func Write(w io.Writer, reviews []ingest.Review) error {
	enc := json.NewEncoder(w)
	for _, rev := range reviews {
		voted := rev.Positive
		if err := enc.Encode(ingest.RawReview{ID: rev.ID, Text: rev.Text, VotedUp: &voted}); err != nil {
			return fmt.Errorf("encode review %s: %w", rev.ID, err)
		}
	}
	return nil
}

// Save writes reviews to path, replacing any existing file.
func Save(path string, reviews []ingest.Review) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, reviews); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
