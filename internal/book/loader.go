// Package book loads venue orderbook snapshots from the tab-separated data
// file and precomputes the sorted level sequences and balance map that quote
// runs consume.
package book

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/metaquote/internal/domain"
)

// maxLineBytes bounds a single data-file line. Deep books run to a few
// hundred KB per line; 8 MB leaves generous headroom.
const maxLineBytes = 8 << 20

// Loader parses the snapshot data file. Each line is
// "<venueID>\t<orderbook JSON>"; the venue id doubles as the book's key in
// the balance map.
type Loader struct {
	logger *slog.Logger

	// MaxVenues caps how many lines are decoded; 0 means no cap.
	MaxVenues int
}

// NewLoader creates a Loader.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger.With(slog.String("component", "book_loader"))}
}

// Load reads all lines from r and decodes them into venue order books.
// Decoding runs in parallel across lines since each venue's book is
// independent; input order is preserved in the result. Malformed lines are
// skipped with a warning rather than failing the whole load.
func (l *Loader) Load(ctx context.Context, r io.Reader) ([]domain.VenueOrderBook, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if l.MaxVenues > 0 && len(lines) >= l.MaxVenues {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("book: read snapshot data: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("book: snapshot data is empty")
	}

	books := make([]*domain.VenueOrderBook, len(lines))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			book, err := parseLine(line)
			if err != nil {
				l.logger.Warn("skipping malformed snapshot line",
					slog.Int("line", i+1),
					slog.String("error", err.Error()),
				)
				return nil
			}
			books[i] = book
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("book: decode snapshot data: %w", err)
	}

	out := make([]domain.VenueOrderBook, 0, len(books))
	for _, b := range books {
		if b != nil {
			out = append(out, *b)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("book: no valid orderbooks in snapshot data")
	}
	return out, nil
}

// parseLine splits one "<venueID>\t<json>" line and decodes the book.
func parseLine(line string) (*domain.VenueOrderBook, error) {
	id, jsonPart, ok := strings.Cut(line, "\t")
	if !ok {
		return nil, fmt.Errorf("missing tab separator")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("empty venue id")
	}

	var book domain.VenueOrderBook
	if err := json.Unmarshal([]byte(jsonPart), &book); err != nil {
		return nil, fmt.Errorf("decode orderbook json: %w", err)
	}
	book.VenueID = id
	return &book, nil
}
