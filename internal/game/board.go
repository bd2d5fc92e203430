package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jason-s-yu/bingo/internal/models"
	log "github.com/sirupsen/logrus"
)

// Board is the ordered row-major sequence of tiles of a room.
type Board []models.Tile

// PhraseSource provides the pool of labels boards are drawn from.
type PhraseSource interface {
	Phrases(ctx context.Context) ([]string, error)
}

// DefaultPhraseTimeout bounds a single pool read during board generation.
const DefaultPhraseTimeout = 3 * time.Second

// BoardGenerator builds fresh boards from a phrase pool.
type BoardGenerator struct {
	Source  PhraseSource
	Timeout time.Duration

	// shuffle permutes n elements through swap; rand.Shuffle by default.
	shuffle func(n int, swap func(i, j int))
}

// NewBoardGenerator returns a generator reading from src. A nil src yields
// placeholder-only boards.
func NewBoardGenerator(src PhraseSource, timeout time.Duration) *BoardGenerator {
	if timeout <= 0 {
		timeout = DefaultPhraseTimeout
	}
	return &BoardGenerator{Source: src, Timeout: timeout, shuffle: rand.Shuffle}
}

// Generate returns a board of TotalTiles unowned tiles. A failing or slow source
// degrades to placeholder labels and never fails.
func (bg *BoardGenerator) Generate(ctx context.Context) Board {
	var shuffle func(n int, swap func(i, j int))
	if bg != nil {
		shuffle = bg.shuffle
	}
	labels := boardLabels(bg.loadPool(ctx), TotalTiles, shuffle)
	board := make(Board, len(labels))
	for i, l := range labels {
		board[i] = models.Tile{Label: l}
	}
	return board
}

func (bg *BoardGenerator) loadPool(ctx context.Context) []string {
	if bg == nil || bg.Source == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, bg.Timeout)
	defer cancel()

	raw, err := bg.Source.Phrases(ctx)
	if err != nil {
		log.WithError(err).Warn("phrase pool unavailable, using placeholder board")
		return nil
	}
	return usablePhrases(raw)
}

// usablePhrases trims entries and drops empties and duplicates, keeping the
// first occurrence.
func usablePhrases(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// boardLabels picks total labels from pool. A pool at least total long is
// shuffled and truncated; a shorter one is padded with numbered placeholders.
func boardLabels(pool []string, total int, shuffle func(n int, swap func(i, j int))) []string {
	if len(pool) >= total {
		picked := make([]string, len(pool))
		copy(picked, pool)
		if shuffle == nil {
			shuffle = rand.Shuffle
		}
		shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
		return picked[:total]
	}
	labels := make([]string, 0, total)
	labels = append(labels, pool...)
	for i := len(pool); i < total; i++ {
		labels = append(labels, fmt.Sprintf("Task %d", i+1))
	}
	return labels
}
