package training

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fieldbem/pdfrename/internal/bemerrors"
)

// LoadNDJSON reads one Record per line from r, the ingestion format the
// training corpus is shipped in: newline-delimited JSON, one historical
// (context -> approved name) example per line, blank lines skipped. A
// malformed line is a TrainingCorpus failure for the whole load, matching
// the load-time-only fatality §7 gives KindTrainingCorrupt.
func LoadNDJSON(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var records []Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, bemerrors.TrainingCorrupt(fmt.Sprintf("malformed training record at line %d", lineNo), err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, bemerrors.TrainingCorrupt("reading training corpus failed", err)
	}
	return records, nil
}
