package batch

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/queuebridge/tap-aptify/pkg/singer"
)

// memStorage captures uploads for inspection.
type memStorage struct {
	files map[string][]byte
}

func (s *memStorage) Put(_ context.Context, name string, data []byte) (string, error) {
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[name] = append([]byte(nil), data...)
	return "mem://" + name, nil
}

func makeRecord(id int) *singer.Record {
	rec := singer.NewRecord([]string{"id", "name"})
	rec.Set("id", id)
	rec.Set("name", fmt.Sprintf("row-%d", id))
	return rec
}

func TestBatcherRollsAtBatchSize(t *testing.T) {
	store := &memStorage{}
	b := NewBatcher(context.Background(), "dbo-ssPerson", "", 3, store)

	for i := 1; i <= 7; i++ {
		if err := b.WriteRecord(makeRecord(i)); err != nil {
			t.Fatalf("WriteRecord(%d) error: %v", i, err)
		}
	}
	manifest, err := b.Flush()
	if err != nil {
		t.Fatalf("Flush() error: %v", err)
	}

	// 7 records at batch size 3: two full files plus one of a single record.
	if len(manifest) != 3 {
		t.Fatalf("manifest size = %d, want 3", len(manifest))
	}
	wantCounts := []int{3, 3, 1}
	total := 0
	for i, f := range manifest {
		if f.Records != wantCounts[i] {
			t.Errorf("manifest[%d].Records = %d, want %d", i, f.Records, wantCounts[i])
		}
		if !strings.HasPrefix(f.Checksum, "xxh3:") {
			t.Errorf("manifest[%d].Checksum = %q, want xxh3 prefix", i, f.Checksum)
		}
		total += f.Records
	}
	if total != 7 {
		t.Errorf("total records in manifest = %d, want 7", total)
	}
}

func TestBatcherFileNaming(t *testing.T) {
	store := &memStorage{}
	b := NewBatcher(context.Background(), "dbo-ssPerson", "exports/", 10, store)
	b.WriteRecord(makeRecord(1))

	manifest, err := b.Flush()
	if err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	if len(manifest) != 1 {
		t.Fatalf("manifest size = %d, want 1", len(manifest))
	}

	url := manifest[0].URL
	if !strings.HasPrefix(url, "mem://exports/tap-aptify--dbo-ssPerson-") {
		t.Errorf("batch URL = %q, want prefix + sync id", url)
	}
	if !strings.HasSuffix(url, "-1.json.gz") {
		t.Errorf("batch URL = %q, want 1-based sequence suffix", url)
	}
}

func TestBatcherContentRoundTrip(t *testing.T) {
	store := &memStorage{}
	b := NewBatcher(context.Background(), "dbo-ssOrders", "", 100, store)
	for i := 1; i <= 5; i++ {
		b.WriteRecord(makeRecord(i))
	}
	if _, err := b.Flush(); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}

	if len(store.files) != 1 {
		t.Fatalf("stored files = %d, want 1", len(store.files))
	}
	for name, data := range store.files {
		gz, err := gzip.NewReader(strings.NewReader(string(data)))
		if err != nil {
			t.Fatalf("file %s is not valid gzip: %v", name, err)
		}
		var lines int
		sc := bufio.NewScanner(gz)
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, `{"id":`) {
				t.Errorf("line %d does not start with ordered id column: %s", lines, line)
			}
			lines++
		}
		if lines != 5 {
			t.Errorf("file %s has %d lines, want 5", name, lines)
		}
	}
}

func TestBatcherEmptySync(t *testing.T) {
	b := NewBatcher(context.Background(), "dbo-ssEmpty", "", 10, &memStorage{})
	manifest, err := b.Flush()
	if err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	if len(manifest) != 0 {
		t.Errorf("empty sync manifest size = %d, want 0", len(manifest))
	}
}
