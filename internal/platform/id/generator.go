package id

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// RunIDGenerator issues run ids shaped "<unix seconds>-<8 hex>".
type RunIDGenerator struct {
	now func() time.Time
}

func NewRunIDGenerator() *RunIDGenerator {
	return &RunIDGenerator{now: time.Now}
}

func (g *RunIDGenerator) NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	suffix := strings.ReplaceAll(u.String(), "-", "")[:8]

	return strconv.FormatInt(g.now().Unix(), 10) + "-" + suffix, nil
}

// Static always returns the same id; handy for deterministic tests.
type Static string

func (s Static) NewID() (string, error) {
	return string(s), nil
}
