package entities

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cubestudio/dataset-admin/pkg/utils"
)

// Segment maps a partition name to the ordered list of files in it.
type Segment map[string][]string

// ParseSegment decodes the segment column. A blank column is an empty segment.
func ParseSegment(raw string) (Segment, error) {
	segment := Segment{}
	if strings.TrimSpace(raw) == "" {
		return segment, nil
	}

	if err := json.Unmarshal([]byte(raw), &segment); err != nil {
		return nil, fmt.Errorf("malformed segment: %w", err)
	}

	if segment == nil {
		segment = Segment{}
	}

	return segment, nil
}

// Add appends path to partition unless it is already listed.
func (s Segment) Add(partition, path string) {
	s[partition] = utils.Unique(append(s[partition], path))
}

func (s Segment) String() string {
	if len(s) == 0 {
		return ""
	}

	raw, err := json.Marshal(map[string][]string(s))
	if err != nil {
		return ""
	}

	return string(raw)
}
