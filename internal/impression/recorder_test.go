package impression

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testImpression(listingID string, position int) Impression {
	return Impression{
		ID:             uuid.New().String(),
		ViewerTenantID: "tenant-viewer",
		ListingID:      listingID,
		RequestID:      "req-1",
		Position:       position,
		FinalScore:     0.42,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestRecorderWritesBatches(t *testing.T) {
	repo := NewInMemoryRepository()
	rec := NewRecorder(repo, nil, 16)

	rec.RecordImpressions([]Impression{
		testImpression("listing-1", 1),
		testImpression("listing-2", 2),
	})
	rec.RecordRequestLog(RequestLog{
		ID:        uuid.New().String(),
		RequestID: "req-1",
		SortMode:  "RELEVANCE",
		Limit:     20,
		CreatedAt: time.Now().UTC(),
	})
	rec.Close()

	got := repo.ImpressionsByViewer("tenant-viewer")
	if len(got) != 2 {
		t.Fatalf("stored impressions = %d, want 2", len(got))
	}
	if got[0].Position != 1 || got[1].Position != 2 {
		t.Errorf("positions = %d, %d, want 1, 2", got[0].Position, got[1].Position)
	}

	logs := repo.RequestLogs()
	if len(logs) != 1 {
		t.Fatalf("stored request logs = %d, want 1", len(logs))
	}
	if logs[0].RequestID != "req-1" {
		t.Errorf("request log ID = %s, want req-1", logs[0].RequestID)
	}
}

func TestRecorderIgnoresEmptyBatch(t *testing.T) {
	repo := NewInMemoryRepository()
	rec := NewRecorder(repo, nil, 16)
	rec.RecordImpressions(nil)
	rec.Close()

	if got := repo.ImpressionsByViewer("tenant-viewer"); len(got) != 0 {
		t.Errorf("stored impressions = %d, want 0", len(got))
	}
}

// blockingRepository holds every write until released, so tests can fill
// the recorder buffer deterministically.
type blockingRepository struct {
	release chan struct{}
	writes  chan int
}

func (b *blockingRepository) AppendImpressions(_ context.Context, impressions []Impression) error {
	<-b.release
	b.writes <- len(impressions)
	return nil
}

func (b *blockingRepository) AppendRequestLog(context.Context, RequestLog) error {
	<-b.release
	b.writes <- 1
	return nil
}

func TestRecorderNeverBlocksWhenBufferFull(t *testing.T) {
	repo := &blockingRepository{
		release: make(chan struct{}),
		writes:  make(chan int, 16),
	}
	rec := NewRecorder(repo, nil, 1)

	// First batch is picked up by the worker and blocks inside the repo;
	// second fills the buffer; the rest must drop without blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			rec.RecordImpressions([]Impression{testImpression("listing-1", i + 1)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RecordImpressions blocked on a full buffer")
	}

	close(repo.release)
	rec.Close()
}

// failingRepository rejects every write.
type failingRepository struct{}

func (failingRepository) AppendImpressions(context.Context, []Impression) error {
	return errors.New("storage offline")
}

func (failingRepository) AppendRequestLog(context.Context, RequestLog) error {
	return errors.New("storage offline")
}

func TestRecorderSwallowsWriteErrors(t *testing.T) {
	rec := NewRecorder(failingRepository{}, nil, 16)

	// Neither call may panic or surface the repository error.
	rec.RecordImpressions([]Impression{testImpression("listing-1", 1)})
	rec.RecordRequestLog(RequestLog{ID: uuid.New().String(), RequestID: "req-1"})
	rec.Close()
}

func TestSnapshotRoundTrip(t *testing.T) {
	type breakdown struct {
		Base  float64 `cbor:"base"`
		Final float64 `cbor:"final"`
	}

	encoded, err := EncodeSnapshot(breakdown{Base: 0.61, Final: 0.915})
	if err != nil {
		t.Fatalf("EncodeSnapshot(): %v", err)
	}

	var decoded breakdown
	if err := DecodeSnapshot(encoded, &decoded); err != nil {
		t.Fatalf("DecodeSnapshot(): %v", err)
	}
	if decoded.Base != 0.61 || decoded.Final != 0.915 {
		t.Errorf("decoded = %+v, want base 0.61 final 0.915", decoded)
	}

	if err := DecodeSnapshot(nil, &decoded); err == nil {
		t.Error("DecodeSnapshot(nil) succeeded, want error")
	}
}

func TestHashQueryStable(t *testing.T) {
	type query struct {
		Category string `json:"category"`
		Limit    int    `json:"limit"`
	}

	a := HashQuery(query{Category: "cat-1", Limit: 20})
	b := HashQuery(query{Category: "cat-1", Limit: 20})
	c := HashQuery(query{Category: "cat-2", Limit: 20})

	if a == "" {
		t.Fatal("HashQuery() returned empty digest")
	}
	if a != b {
		t.Error("identical queries hashed differently")
	}
	if a == c {
		t.Error("different queries hashed identically")
	}
}
