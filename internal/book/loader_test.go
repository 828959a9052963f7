package book

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleData = "1548759600.25189\t" +
	`{"AcqTime":"2019-01-29T11:00:00.2518854Z","Bids":[{"Order":{"Id":null,"Time":"0001-01-01T00:00:00","Type":"Buy","Kind":"Limit","Amount":3.0,"Price":2900.0}}],"Asks":[{"Order":{"Id":null,"Time":"0001-01-01T00:00:00","Type":"Sell","Kind":"Limit","Amount":0.2,"Price":3000.0}},{"Order":{"Id":null,"Time":"0001-01-01T00:00:00","Type":"Sell","Kind":"Limit","Amount":0.62,"Price":3300.0}}]}` + "\n" +
	"1548759601.33694\t" +
	`{"AcqTime":"2019-01-29T11:00:01.3369432Z","Bids":[{"Order":{"Id":null,"Time":"0001-01-01T00:00:00","Type":"Buy","Kind":"Limit","Amount":0.8,"Price":2880.0}}],"Asks":[{"Order":{"Id":null,"Time":"0001-01-01T00:00:00","Type":"Sell","Kind":"Limit","Amount":0.7,"Price":3100.0}}]}` + "\n"

func TestLoaderParsesDataFileFormat(t *testing.T) {
	l := NewLoader(testLogger())

	books, err := l.Load(context.Background(), strings.NewReader(sampleData))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}

	b := books[0]
	if b.VenueID != "1548759600.25189" {
		t.Errorf("VenueID = %q", b.VenueID)
	}
	if len(b.Asks) != 2 || len(b.Bids) != 1 {
		t.Fatalf("book shape: %d asks, %d bids", len(b.Asks), len(b.Bids))
	}
	if b.Asks[0].Order.Price != 3000.0 || b.Asks[0].Order.Amount != 0.2 {
		t.Errorf("first ask = %+v", b.Asks[0].Order)
	}
	if b.AcqTime.IsZero() {
		t.Error("AcqTime not decoded")
	}

	// Input order is preserved even though decoding is parallel.
	if books[1].VenueID != "1548759601.33694" {
		t.Errorf("second book VenueID = %q", books[1].VenueID)
	}
}

func TestLoaderSkipsMalformedLines(t *testing.T) {
	data := "no-tab-on-this-line\n" +
		"venue-a\t{\"Bids\":[],\"Asks\":[]}\n" +
		"venue-b\tnot json\n"

	books, err := NewLoader(testLogger()).Load(context.Background(), strings.NewReader(data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(books) != 1 || books[0].VenueID != "venue-a" {
		t.Fatalf("expected only venue-a to survive, got %+v", books)
	}
}

func TestLoaderEmptyInput(t *testing.T) {
	if _, err := NewLoader(testLogger()).Load(context.Background(), strings.NewReader("")); err == nil {
		t.Fatal("expected error on empty input")
	}
}

func TestLoaderMaxVenues(t *testing.T) {
	l := NewLoader(testLogger())
	l.MaxVenues = 1

	books, err := l.Load(context.Background(), strings.NewReader(sampleData))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("expected venue cap of 1, got %d books", len(books))
	}
}
