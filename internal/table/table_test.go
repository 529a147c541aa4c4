package table

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/verte-zerg/wfdrill/internal/model"
	"github.com/verte-zerg/wfdrill/internal/question"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadRawItemsPipeDelimited(t *testing.T) {
	path := writeFile(t, "raw.csv", "Question Number|English Content|Source\n1|Hello, world.|week 1\n2|A b, c|week 2\n")
	items, err := LoadRawItems(path, Options{})
	if err != nil {
		t.Fatalf("load raw items: %v", err)
	}
	want := []model.RawItem{{Content: "Hello, world."}, {Content: "A b, c"}}
	if !reflect.DeepEqual(items, want) {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestLoadRawItemsKeepsBareQuotes(t *testing.T) {
	path := writeFile(t, "raw.csv", "Question Number|English Content\n1|The word \"science\" comes from Latin.\n2|It's \"fine\"\n")
	items, err := LoadRawItems(path, Options{})
	if err != nil {
		t.Fatalf("load raw items: %v", err)
	}
	want := []model.RawItem{{Content: `The word "science" comes from Latin.`}, {Content: `It's "fine"`}}
	if !reflect.DeepEqual(items, want) {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestLoadRawItemsMissingColumn(t *testing.T) {
	path := writeFile(t, "raw.csv", "Number|Text\n1|Hello\n")
	if _, err := LoadRawItems(path, Options{}); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestLoadRawItemsMissingFile(t *testing.T) {
	if _, err := LoadRawItems(filepath.Join(t.TempDir(), "nope.csv"), Options{}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func sampleDataset() *model.Dataset {
	ref := question.AudioRefIn("audio", "mp3")
	a := &model.QuestionRecord{
		Content:       `She said "no, thanks", then left.`,
		Fingerprint:   question.Fingerprint(`She said "no, thanks", then left.`),
		WrongCount:    2,
		ReviewedCount: 3,
		WrongDates:    []string{"2026-10-01", "2026-10-02"},
		WrongRecords:  []string{"she said no thanks", "then, left\nnewline"},
	}
	a.AudioRef = ref(a.Fingerprint)
	b := &model.QuestionRecord{
		Content:      "Plain text",
		Fingerprint:  question.Fingerprint("Plain text"),
		WrongDates:   []string{},
		WrongRecords: []string{},
	}
	b.AudioRef = ref(b.Fingerprint)
	ds := &model.Dataset{Records: []*model.QuestionRecord{a, b}}
	ds.Renumber()
	return ds
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "wfd.csv")
	ds := sampleDataset()
	if err := SaveDataset(path, ds, Options{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadDataset(path, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Records) != len(ds.Records) {
		t.Fatalf("expected %d records, got %d", len(ds.Records), len(loaded.Records))
	}
	for i := range ds.Records {
		if !reflect.DeepEqual(loaded.Records[i], ds.Records[i]) {
			t.Fatalf("record %d mismatch:\n got %+v\nwant %+v", i, loaded.Records[i], ds.Records[i])
		}
	}
}

func TestSaveLoadGBK(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wfd.csv")
	rec := &model.QuestionRecord{
		Content:      "你好 world",
		Fingerprint:  question.Fingerprint("你好 world"),
		WrongDates:   []string{},
		WrongRecords: []string{},
	}
	ds := &model.Dataset{Records: []*model.QuestionRecord{rec}}
	opts := Options{Encoding: EncodingGBK}
	if err := SaveDataset(path, ds, opts); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if bytes.Contains(raw, []byte("你好")) {
		t.Fatalf("expected GBK bytes, found UTF-8 text")
	}
	loaded, err := LoadDataset(path, opts)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Records[0].Content != "你好 world" {
		t.Fatalf("unexpected content: %q", loaded.Records[0].Content)
	}
}

func TestLoadLegacyTable(t *testing.T) {
	fpHello := question.Fingerprint("Hello there.")
	fpSecond := question.Fingerprint("Second one")
	content := "Question Number,English Content,Source,wrong,reviewed,wrong_date,wrong_record,md5,mp3_path\n" +
		"7,Hello there.,w1,1,4,['2024-03-01'],\"[\"\"it's hello\"\"]\"," + fpHello + ",./wfd_mp3/" + fpHello + ".mp3\n" +
		"8,Second one,w1,0,0,[],[]," + fpSecond + ",\n"
	path := writeFile(t, "wfd.csv", content)
	ds, err := LoadDataset(path, Options{AudioRef: question.AudioRefIn("cache", "mp3")})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	first := ds.Records[0]
	if first.DisplayIndex != 1 || first.Fingerprint != fpHello || first.AudioRef != "./wfd_mp3/"+fpHello+".mp3" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if !reflect.DeepEqual(first.WrongRecords, []string{"it's hello"}) || !reflect.DeepEqual(first.WrongDates, []string{"2024-03-01"}) {
		t.Fatalf("unexpected history: %+v", first)
	}
	second := ds.Records[1]
	if second.AudioRef != filepath.Join("cache", fpSecond+".mp3") {
		t.Fatalf("expected derived audio ref, got %q", second.AudioRef)
	}
}

func TestLoadRejectsStaleFingerprint(t *testing.T) {
	stale := question.Fingerprint("Hello there.")
	path := writeFile(t, "wfd.csv", "English Content,md5\nHello here.,"+stale+"\n")
	if _, err := LoadDataset(path, Options{}); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for stale fingerprint, got %v", err)
	}

	path = writeFile(t, "wfd.csv", "English Content,md5\nHello here.,\n")
	ds, err := LoadDataset(path, Options{})
	if err != nil {
		t.Fatalf("load with cleared fingerprint: %v", err)
	}
	if ds.Records[0].Fingerprint != question.Fingerprint("Hello here.") {
		t.Fatalf("expected recomputed fingerprint, got %q", ds.Records[0].Fingerprint)
	}
}

func TestLoadRejectsBrokenInvariants(t *testing.T) {
	cases := []string{
		"English Content,wrong,reviewed,wrong_date,wrong_record\nA,2,1,v1[],v1[]\n",
		"English Content,wrong,reviewed,wrong_date,wrong_record\nA,1,1,v1[],v1[]\n",
		"English Content,wrong,reviewed,wrong_date,wrong_record\nA,x,1,v1[],v1[]\n",
		"English Content,md5\nA,\nA,\n",
	}
	for _, c := range cases {
		path := writeFile(t, "bad.csv", c)
		if _, err := LoadDataset(path, Options{}); !errors.Is(err, ErrInvalidRecord) {
			t.Fatalf("expected ErrInvalidRecord for %q, got %v", c, err)
		}
	}
}

func TestLoadRejectsEvaluatableHistory(t *testing.T) {
	path := writeFile(t, "bad.csv", "English Content,wrong,reviewed,wrong_date,wrong_record\nA,0,0,\"__import__('os').getcwd()\",[]\n")
	if _, err := LoadDataset(path, Options{}); err == nil {
		t.Fatalf("expected error for non-literal history")
	}
}

func TestValidEncoding(t *testing.T) {
	for _, name := range []string{"", "utf-8", "UTF8", "gbk", "GBK"} {
		if !ValidEncoding(name) {
			t.Fatalf("expected %q to be valid", name)
		}
	}
	if ValidEncoding("latin1") {
		t.Fatalf("expected latin1 to be rejected")
	}
}
