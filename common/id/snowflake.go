package id

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new globally unique int64 ID using the Snowflake algorithm.
// IDs are time-ordered and unique across distributed instances.
func New() int64 {
	return node.Generate().Int64()
}

// Format renders an ID as the decimal string used for document keys.
// Document stores keep numbers as doubles, which cannot hold every int64.
func Format(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Parse is the inverse of Format.
func Parse(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return v, nil
}

// FormatPtr formats an optional ID; nil stays nil.
func FormatPtr(v *int64) *string {
	if v == nil {
		return nil
	}
	s := Format(*v)
	return &s
}

// ParsePtr parses an optional ID; nil or empty stays nil.
func ParsePtr(s *string) (*int64, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	v, err := Parse(*s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
