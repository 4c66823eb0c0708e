package fields

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/idcard-tools/internal/detection"
	"github.com/ironsheep/idcard-tools/internal/ocr"
)

// widthRecognizer returns canned text keyed by the width of the crop it is
// given, standing in for Tesseract.
func widthRecognizer(byWidth map[int]string) ocr.Recognizer {
	return ocr.RecognizerFunc(func(ctx context.Context, img image.Image, language string, mode ocr.Mode) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return byWidth[img.Bounds().Dx()], nil
	})
}

func createGrayTemplate(width, height int) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, width, height))
	for i := range gray.Pix {
		gray.Pix[i] = 200
	}
	return gray
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"NAME", "name"},
		{"  Staff   Number:\n___ ", "staff number: ___"},
		{"\t\n", ""},
		{"Teaching\tStaff", "teaching staff"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"exact", "name", "name", 100},
		{"substring", "staff number", "staff number: ___", 100},
		{"text shorter than keyword", "staff number: ___", "staff number", 71},
		{"truncated text within ratio", "name", "nam", 100},
		{"single letter of keyword", "name", "e", 25},
		{"two letters of keyword", "teacher number", "er", 14},
		{"one substitution in four", "name", "nane", 75},
		{"one substitution in seven", "picture", "picturf", 86},
		{"one substitution in fourteen", "teaching staff", "teachinq staff", 93},
		{"unrelated", "picture", "zzzzzzz", 0},
		{"empty keyword", "", "name", 0},
		{"empty text", "name", "", 0},
		{"unicode", "naïve", "the naïve one", 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PartialRatio(tt.a, tt.b); got != tt.want {
				t.Errorf("PartialRatio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestVocabularyMatch_DefaultLabels(t *testing.T) {
	vocab := DefaultVocabulary()
	tests := []struct {
		text string
		want Kind
	}{
		{"NAME", Name},
		{"Staff Number: ___", StaffNumber},
		{"TEACHER NUMBER", StaffNumber},
		{"DBS Number", CredentialNumber},
		{"credential number", CredentialNumber},
		{"PICTURE", Photo},
		{"Teaching Staff", RoleLabel},
		{"QR CODE", QRCode},
		{"", Unknown},
		{"~#%&", Unknown},
		{"signature", Unknown},
		{"e", Unknown},
		{"a", Unknown},
		{"i", Unknown},
		{"er", Unknown},
		{"| |", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, _ := vocab.Match(tt.text, DefaultThreshold)
			if got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestPartialRatioMin_Ratio(t *testing.T) {
	tests := []struct {
		minRatio float64
		want     int
	}{
		{1, 86},     // "picture" vs "pictur": 6/7 is below 1, scaled
		{0.75, 100}, // 6/7 clears 0.75
		{0, 100},
	}
	for _, tt := range tests {
		if got := PartialRatioMin("picture", "pictur", tt.minRatio); got != tt.want {
			t.Errorf("PartialRatioMin(minRatio=%v) = %d, want %d", tt.minRatio, got, tt.want)
		}
	}
}

func TestVocabularyMatch_FragmentsNeedLength(t *testing.T) {
	vocab := Vocabulary{{Keyword: "name", Kind: Name}}

	if kind, score := vocab.Match("am", DefaultThreshold); kind != Unknown {
		t.Errorf("Match(%q) = %v (score %d), want Unknown", "am", kind, score)
	}
	// With no length requirement a fragment scores in full.
	if kind, _ := vocab.MatchMin("am", DefaultThreshold, 0.1); kind != Name {
		t.Errorf("MatchMin(%q, 0.1) = %v, want %v", "am", kind, Name)
	}
}

func TestVocabularyMatch_FirstMatchWins(t *testing.T) {
	staffFirst := Vocabulary{
		{Keyword: "staff", Kind: RoleLabel},
		{Keyword: "staff number", Kind: StaffNumber},
	}
	numberFirst := Vocabulary{
		{Keyword: "staff number", Kind: StaffNumber},
		{Keyword: "staff", Kind: RoleLabel},
	}

	// Both keywords score 100 against this text.
	text := "staff number"
	if got, _ := staffFirst.Match(text, DefaultThreshold); got != RoleLabel {
		t.Errorf("staffFirst: got %v, want %v", got, RoleLabel)
	}
	if got, _ := numberFirst.Match(text, DefaultThreshold); got != StaffNumber {
		t.Errorf("numberFirst: got %v, want %v", got, StaffNumber)
	}
}

func TestVocabularyMatch_ThresholdIsStrict(t *testing.T) {
	vocab := Vocabulary{{Keyword: "dbs number", Kind: CredentialNumber}}

	// One edit in ten characters scores exactly 90.
	kind, score := vocab.Match("dbs numbor", 90)
	if score != 90 {
		t.Fatalf("score: got %d, want 90", score)
	}
	if kind != Unknown {
		t.Errorf("score equal to threshold matched %v, want Unknown", kind)
	}
	if kind, _ := vocab.Match("dbs numbor", 89); kind != CredentialNumber {
		t.Errorf("threshold 89: got %v, want %v", kind, CredentialNumber)
	}
}

func TestVocabulary_Validate(t *testing.T) {
	tests := []struct {
		name    string
		vocab   Vocabulary
		wantErr bool
	}{
		{"default", DefaultVocabulary(), false},
		{"empty", Vocabulary{}, true},
		{"blank keyword", Vocabulary{{Keyword: "  ", Kind: Name}}, true},
		{"unknown kind", Vocabulary{{Keyword: "name", Kind: Unknown}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.vocab.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate: got %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"name", Name, false},
		{"staff_number", StaffNumber, false},
		{"StaffNumber", StaffNumber, false},
		{"credential number", CredentialNumber, false},
		{"Role-Label", RoleLabel, false},
		{"PHOTO", Photo, false},
		{"qr_code", QRCode, false},
		{"unknown", Unknown, false},
		{"signature", Unknown, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q): err %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKind_JSON(t *testing.T) {
	data, err := json.Marshal(Classification{Kind: StaffNumber, Text: "staff number", Score: 100})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"kind":"staff_number","text":"staff number","score":100}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	var e Entry
	if err := json.Unmarshal([]byte(`{"keyword":"picture","kind":"Photo"}`), &e); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if e.Kind != Photo {
		t.Errorf("kind: got %v, want %v", e.Kind, Photo)
	}

	if _, err := Kind(99).MarshalText(); err == nil {
		t.Error("expected error marshaling out-of-range kind")
	}
}

func TestNew_Validation(t *testing.T) {
	rec := widthRecognizer(nil)

	if _, err := New(nil, DefaultOptions(), nil); err == nil {
		t.Error("expected error for nil recognizer")
	}

	opts := DefaultOptions()
	opts.Threshold = 101
	if _, err := New(rec, opts, nil); err == nil {
		t.Error("expected error for threshold above 100")
	}

	opts = DefaultOptions()
	opts.BlockSize = 1
	if _, err := New(rec, opts, nil); err == nil {
		t.Error("expected error for tiny block size")
	}

	opts = DefaultOptions()
	opts.MinLengthRatio = 1.5
	if _, err := New(rec, opts, nil); err == nil {
		t.Error("expected error for min length ratio above 1")
	}

	opts = DefaultOptions()
	opts.MinLengthRatio = 0
	c, err := New(rec, opts, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.Options().MinLengthRatio != DefaultMinLengthRatio {
		t.Errorf("zero min length ratio: got %v, want default", c.Options().MinLengthRatio)
	}

	opts = DefaultOptions()
	opts.Vocabulary = nil
	c, err = New(rec, opts, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(c.Options().Vocabulary) != len(DefaultVocabulary()) {
		t.Error("empty vocabulary should fall back to the default table")
	}
}

func TestClassify_ThreeBoxTemplate(t *testing.T) {
	gray := createGrayTemplate(1400, 900)
	rec := widthRecognizer(map[int]string{
		520:  "NAME",
		900:  "STAFF NUMBER: ___",
		1300: "PICTURE",
	})
	c, err := New(rec, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	regions := []detection.Region{
		{X: 10, Y: 10, Width: 520, Height: 100},
		{X: 10, Y: 150, Width: 900, Height: 100},
		{X: 10, Y: 300, Width: 1300, Height: 500},
	}
	want := []Kind{Name, StaffNumber, Photo}

	got, err := c.ClassifyAll(context.Background(), gray, regions)
	if err != nil {
		t.Fatalf("ClassifyAll failed: %v", err)
	}
	for i := range want {
		if got[i].Kind != want[i] {
			t.Errorf("region %d: got %v, want %v (text %q)", i, got[i].Kind, want[i], got[i].Text)
		}
	}
	if got[1].Text != "staff number: ___" {
		t.Errorf("text not normalized: %q", got[1].Text)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	gray := createGrayTemplate(200, 100)
	c, err := New(widthRecognizer(map[int]string{120: "Teachinq Staff"}), DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	r := detection.Region{X: 10, Y: 10, Width: 120, Height: 40}

	first, err := c.Classify(context.Background(), gray, r)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := c.Classify(context.Background(), gray, r)
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if again != first {
			t.Fatalf("run %d: got %+v, want %+v", i, again, first)
		}
	}
	if first.Kind != RoleLabel {
		t.Errorf("got %v, want %v", first.Kind, RoleLabel)
	}
}

func TestClassify_PassesBinarizedCrop(t *testing.T) {
	gray := createGrayTemplate(300, 200)
	// Dark stroke inside the region on an uneven background.
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			gray.SetGray(x, y, color.Gray{Y: uint8(120 + x/4)})
		}
	}
	for x := 60; x < 140; x++ {
		gray.SetGray(x, 80, color.Gray{Y: 10})
	}

	var gotLang string
	var gotMode ocr.Mode
	var bounds image.Rectangle
	binary := true
	rec := ocr.RecognizerFunc(func(ctx context.Context, img image.Image, language string, mode ocr.Mode) (string, error) {
		gotLang, gotMode, bounds = language, mode, img.Bounds()
		g, ok := img.(*image.Gray)
		if !ok {
			t.Fatalf("recognizer got %T, want *image.Gray", img)
		}
		for _, v := range g.Pix {
			if v != 0 && v != 255 {
				binary = false
			}
		}
		return "name", nil
	})

	opts := DefaultOptions()
	opts.Language = "deu"
	opts.Mode = ocr.ModeSingleLine
	c, err := New(rec, opts, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	r := detection.Region{X: 50, Y: 50, Width: 100, Height: 60}
	if _, err := c.Classify(context.Background(), gray, r); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if bounds != image.Rect(0, 0, 100, 60) {
		t.Errorf("crop bounds: got %v, want 100x60 at origin", bounds)
	}
	if !binary {
		t.Error("recognizer input was not binarized")
	}
	if gotLang != "deu" || gotMode != ocr.ModeSingleLine {
		t.Errorf("recognizer settings: lang=%q mode=%d", gotLang, gotMode)
	}
}

func TestClassify_RecognizerErrorIsUnknown(t *testing.T) {
	rec := ocr.RecognizerFunc(func(ctx context.Context, img image.Image, language string, mode ocr.Mode) (string, error) {
		return "", errors.New("engine crashed")
	})
	c, err := New(rec, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got, err := c.Classify(context.Background(), createGrayTemplate(100, 100), detection.Region{X: 0, Y: 0, Width: 50, Height: 50})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got.Kind != Unknown {
		t.Errorf("got %v, want Unknown", got.Kind)
	}
}

func TestClassify_Errors(t *testing.T) {
	c, err := New(widthRecognizer(nil), DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	gray := createGrayTemplate(100, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Classify(ctx, gray, detection.Region{Width: 50, Height: 50}); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled context: got %v, want context.Canceled", err)
	}

	if _, err := c.Classify(context.Background(), gray, detection.Region{X: 500, Y: 500, Width: 10, Height: 10}); err == nil {
		t.Error("expected error for region outside the image")
	}
}
