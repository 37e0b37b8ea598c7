package hmm

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

const (
	EmissionRecord = "EMISSION"
	// written by older count files
	legacyEmissionRecord = "WORDTAG"
	ngramRecordSuffix    = "-GRAM"
)

type FormatError struct {
	Line int
	Text string
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("counts line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// WriteCounts writes one record per emission and per n-gram of the given orders
// (every order when none is given).
func (m *Model) WriteCounts(w io.Writer, orders ...int) error {
	if len(orders) == 0 {
		for k := 1; k <= m.order; k++ {
			orders = append(orders, k)
		}
	}

	bw := bufio.NewWriter(w)
	for _, entry := range m.sortedEmissions() {
		if _, err := fmt.Fprintf(bw, "%d %s %s %s\n", entry.Count, EmissionRecord, entry.Tag, entry.Word); err != nil {
			return err
		}
	}
	for _, k := range orders {
		if k < 1 || k > m.order {
			return fmt.Errorf("hmm: cannot write %d-grams of a model of order %d", k, m.order)
		}
		for _, entry := range m.sortedNGrams(k) {
			if _, err := fmt.Fprintf(bw, "%d %d%s %s\n", entry.Count, k, ngramRecordSuffix, strings.Join(entry.Tags, " ")); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func (m *Model) sortedEmissions() []*EmissionCount {
	entries := make([]*EmissionCount, 0, len(m.emissions))
	for _, bucket := range m.emissions {
		entries = append(entries, bucket...)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Tag == entries[j].Tag {
			return entries[i].Word < entries[j].Word
		}
		return entries[i].Tag < entries[j].Tag
	})
	return entries
}

func (m *Model) sortedNGrams(k int) []*NGramCount {
	table := m.ngrams[k-1]
	entries := make([]*NGramCount, 0, len(table))
	for _, bucket := range table {
		entries = append(entries, bucket...)
	}
	sort.Slice(entries, func(i, j int) bool {
		return lessTags(entries[i].Tags, entries[j].Tags)
	})
	return entries
}

func lessTags(a []string, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

type countRecord struct {
	count int
	kind  string
	order int
	parts []string
}

// LoadCounts rebuilds a model from the records written by WriteCounts. The model order
// is the largest n-gram order found, at least 2.
func LoadCounts(r io.Reader) (*Model, error) {
	var records []countRecord
	order := 2

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if len(text) == 0 {
			continue
		}
		record, err := parseRecord(text)
		if err != nil {
			return nil, &FormatError{Line: line, Text: text, Msg: err.Error()}
		}
		if record.order > order {
			order = record.order
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read counts: %w", err)
	}

	m, err := NewModel(order)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.kind == EmissionRecord {
			m.addEmission(record.parts[1], record.parts[0], record.count)
			continue
		}
		m.increment(record.parts, record.count)
	}
	m.trained = true
	return m, nil
}

func parseRecord(text string) (countRecord, error) {
	fields := strings.Fields(text)
	if len(fields) < 3 {
		return countRecord{}, fmt.Errorf("expected at least 3 fields, got %d", len(fields))
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil || count < 0 {
		return countRecord{}, fmt.Errorf("invalid count %q", fields[0])
	}

	kind := fields[1]
	switch {
	case kind == EmissionRecord || kind == legacyEmissionRecord:
		if len(fields) < 4 {
			return countRecord{}, fmt.Errorf("emission record needs a tag and a word")
		}
		word := strings.Join(fields[3:], " ")
		return countRecord{count: count, kind: EmissionRecord, parts: []string{fields[2], word}}, nil
	case strings.HasSuffix(kind, ngramRecordSuffix):
		k, err := strconv.Atoi(strings.TrimSuffix(kind, ngramRecordSuffix))
		if err != nil || k < 1 {
			return countRecord{}, fmt.Errorf("invalid n-gram record %q", kind)
		}
		tags := fields[2:]
		if len(tags) != k {
			return countRecord{}, fmt.Errorf("%d-gram record has %d tags", k, len(tags))
		}
		return countRecord{count: count, kind: kind, order: k, parts: tags}, nil
	}
	return countRecord{}, fmt.Errorf("unknown record type %q", kind)
}
