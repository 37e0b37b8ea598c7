package evaluation

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	tableHeader    = "class\t| precision\t| recall\t| F"
	tableSeparator = "--------+---------------+---------------+------"
)

// WriteReport writes the precision, recall and F score of every class and of all
// entities together, followed by the token accuracy of all entities.
func (c *Comparator) WriteReport(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, tableHeader)
	fmt.Fprintln(bw, tableSeparator)
	for _, class := range c.Classes() {
		counter := c.Class(class)
		if counter.Gold() == 0 {
			c.logger.Warn().Str("class", class).Msg("Entity class is missing in gold data")
		}
		if counter.Predicted() == 0 {
			c.logger.Warn().Str("class", class).Msg("Entity class is missing in predicted data")
		}
		writeRow(bw, class, counter)
	}
	fmt.Fprintln(bw, tableSeparator)
	writeRow(bw, "AVERAGE", c.Total)
	fmt.Fprintf(bw, "ACCURACY\t| %.2f%%\n", c.Total.Accuracy()*100)

	line := strings.Repeat("-", 47)
	fmt.Fprintf(bw, "\n%s\n", line)
	fmt.Fprintf(bw, "Gold data contains %d named entities.\n", c.Total.Gold())
	fmt.Fprintf(bw, "Predicted data contains %d named entities.\n", c.Total.Predicted())
	fmt.Fprintln(bw, line)
	fmt.Fprintf(bw, "%d predicted named entities match the gold named entities.\n", c.Total.TP)
	return bw.Flush()
}

func writeRow(w io.Writer, name string, counter EntityCounter) {
	fmt.Fprintf(w, "%s\t| %.2f%%\t| %.2f%%\t| %.2f\n",
		name, counter.Precision()*100, counter.Recall()*100, counter.F1()*100)
}
