package evaluation

import (
	"text2phenotype.com/ner/corpus"
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/types"
	"fmt"
	"github.com/rs/zerolog"
	"io"
	"sort"
	"strings"
)

const (
	insidePrefix  = 'I'
	beginPrefix   = 'B'
	outsidePrefix = 'O'
	typeSeparator = "-"
)

var DefaultClasses = []string{"PER", "ORG", "LOC", "MISC"}

type AlignmentError struct {
	Position  int
	Gold      string
	Predicted string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("gold and predicted tokens differ at position %d: %q != %q", e.Position, e.Gold, e.Predicted)
}

type span struct {
	open  bool
	class string
	start int
}

// Comparator matches predicted entity spans against gold spans. A prediction is
// correct when it starts at the same token and has the same class as a gold span.
type Comparator struct {
	Total   EntityCounter
	classes map[string]*EntityCounter
	logger  zerolog.Logger
}

func NewComparator(classes ...string) *Comparator {
	if len(classes) == 0 {
		classes = DefaultClasses
	}
	c := &Comparator{
		classes: make(map[string]*EntityCounter, len(classes)),
		logger:  logger.NewLogger("Comparator"),
	}
	for _, class := range classes {
		c.classes[class] = &EntityCounter{}
	}
	return c
}

// Classes returns the known classes, the default ones first.
func (c *Comparator) Classes() []string {
	var known, extra []string
	for _, class := range DefaultClasses {
		if _, ok := c.classes[class]; ok {
			known = append(known, class)
		}
	}
	for class := range c.classes {
		if !isDefaultClass(class) {
			extra = append(extra, class)
		}
	}
	sort.Strings(extra)
	return append(known, extra...)
}

func isDefaultClass(class string) bool {
	for _, c := range DefaultClasses {
		if c == class {
			return true
		}
	}
	return false
}

func (c *Comparator) Class(class string) EntityCounter {
	if counter, ok := c.classes[class]; ok {
		return *counter
	}
	return EntityCounter{}
}

func (c *Comparator) counter(class string) *EntityCounter {
	counter, ok := c.classes[class]
	if !ok {
		counter = &EntityCounter{}
		c.classes[class] = counter
	}
	return counter
}

// Compare reads a gold tagged stream and a predicted stream in the given format and
// accumulates span counts. Both streams must hold the same words.
func (c *Comparator) Compare(gold io.Reader, predicted io.Reader, predictedFormat corpus.Format) error {
	goldScanner := corpus.NewTokenScanner(gold, corpus.Tagged)
	predScanner := corpus.NewTokenScanner(predicted, predictedFormat)

	var goldSpan, predSpan span
	position := 0
	for {
		goldOk := goldScanner.Scan()
		predOk := predScanner.Scan()
		if err := goldScanner.Err(); err != nil {
			return fmt.Errorf("failed to read gold tokens: %w", err)
		}
		if err := predScanner.Err(); err != nil {
			return fmt.Errorf("failed to read predicted tokens: %w", err)
		}
		if !goldOk || !predOk {
			if err := c.checkTail(goldScanner, goldOk, predScanner, predOk, position); err != nil {
				return err
			}
			break
		}

		goldToken, predToken := goldScanner.Token(), predScanner.Token()
		if goldToken.IsSentinel() != predToken.IsSentinel() || goldToken.GetWord() != predToken.GetWord() {
			return &AlignmentError{Position: position, Gold: goldToken.GetWord(), Predicted: predToken.GetWord()}
		}
		c.step(&goldSpan, goldToken, &predSpan, predToken, position)
		position++
	}

	// the end of the streams closes open spans
	c.step(&goldSpan, types.Token{}, &predSpan, types.Token{}, position)
	return nil
}

// checkTail accepts trailing blank lines in the longer stream only.
func (c *Comparator) checkTail(goldScanner *corpus.TokenScanner, goldOk bool, predScanner *corpus.TokenScanner, predOk bool, position int) error {
	rest, ok := goldScanner, goldOk
	if predOk {
		rest, ok = predScanner, predOk
	}
	for ok {
		if !rest.Boundary() {
			if rest == goldScanner {
				return &AlignmentError{Position: position, Gold: rest.Token().GetWord()}
			}
			return &AlignmentError{Position: position, Predicted: rest.Token().GetWord()}
		}
		ok = rest.Scan()
	}
	return rest.Err()
}

func (c *Comparator) step(goldSpan *span, gold types.Token, predSpan *span, pred types.Token, position int) {
	goldEnds, goldStarts := transitions(goldSpan, gold)
	predEnds, predStarts := transitions(predSpan, pred)

	switch {
	case goldEnds && predEnds:
		if goldSpan.start == predSpan.start && goldSpan.class == predSpan.class {
			c.Total.TP++
			c.counter(predSpan.class).TP++
		} else {
			c.Total.FP++
			c.Total.FN++
			c.counter(predSpan.class).FP++
			c.counter(goldSpan.class).FN++
		}
	case goldEnds:
		c.Total.FN++
		c.counter(goldSpan.class).FN++
	case predEnds:
		c.Total.FP++
		c.counter(predSpan.class).FP++
	}

	if goldEnds {
		goldSpan.open = false
	}
	if predEnds {
		predSpan.open = false
	}
	// a token outside of any span in both streams
	if !gold.IsSentinel() && !goldSpan.open && !predSpan.open && !goldStarts && !predStarts {
		c.Total.TN++
		for _, counter := range c.classes {
			counter.TN++
		}
	}
	if goldStarts {
		*goldSpan = span{open: true, class: entityType(gold.Tag), start: position}
	}
	if predStarts {
		*predSpan = span{open: true, class: entityType(pred.Tag), start: position}
	}
}

// transitions tells whether token closes the current span and whether it opens a new one.
func transitions(current *span, token types.Token) (bool, bool) {
	if token.IsSentinel() || len(token.Tag) == 0 {
		return current.open, false
	}
	prefix := token.Tag[0]
	class := entityType(token.Tag)

	ends := current.open &&
		(prefix == outsidePrefix || prefix == beginPrefix ||
			(prefix == insidePrefix && class != current.class))
	starts := prefix == beginPrefix ||
		(!current.open && prefix == insidePrefix) ||
		(current.open && current.class != class && prefix == insidePrefix)
	return ends, starts
}

func entityType(tag string) string {
	idx := strings.LastIndex(tag, typeSeparator)
	if idx < 0 {
		return tag
	}
	return tag[idx+len(typeSeparator):]
}
