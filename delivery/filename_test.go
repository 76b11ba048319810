package delivery

import (
	"errors"
	"fmt"
	"testing"
)

func TestNextPhotoFileName_First(t *testing.T) {
	gen := NewFileNameGenerator()

	// 最初の呼び出しは P0000001.JPG
	name, num, err := gen.NextPhotoFileName(".jpg")
	if err != nil {
		t.Fatalf("Failed to generate first file name: %v", err)
	}
	if name != "P0000001.JPG" {
		t.Errorf("Expected P0000001.JPG, got %s", name)
	}
	if num != 1 {
		t.Errorf("Expected photo number 1, got %d", num)
	}

	// 2回目は連番が進む
	name, num, err = gen.NextPhotoFileName(".tiff")
	if err != nil {
		t.Fatalf("Failed to generate second file name: %v", err)
	}
	if name != "P0000002.TIF" {
		t.Errorf("Expected P0000002.TIF, got %s", name)
	}
	if num != 2 {
		t.Errorf("Expected photo number 2, got %d", num)
	}
}

func TestNextPhotoFileName_Overflow(t *testing.T) {
	// 範囲外の開始連番は生成時点で拒否される
	if _, err := NewFileNameGeneratorFrom(MaxSequenceNumber+1, 1); !errors.Is(err, ErrSequenceOverflow) {
		t.Errorf("Expected ErrSequenceOverflow at construction, got %v", err)
	}

	// 上限の連番を払い出した後はオーバーフロー
	gen, err := NewFileNameGeneratorFrom(MaxSequenceNumber, 1)
	if err != nil {
		t.Fatalf("Failed to create generator: %v", err)
	}
	if _, _, err := gen.NextPhotoFileName(".jpg"); err != nil {
		t.Fatalf("Failed to generate file name at max sequence: %v", err)
	}
	if _, _, err := gen.NextPhotoFileName(".jpg"); !errors.Is(err, ErrSequenceOverflow) {
		t.Errorf("Expected ErrSequenceOverflow, got %v", err)
	}
}

func TestNextPhotoFileName_UnsupportedExtension(t *testing.T) {
	gen := NewFileNameGenerator()

	if _, _, err := gen.NextPhotoFileName(".png"); !errors.Is(err, ErrUnsupportedExtension) {
		t.Errorf("Expected ErrUnsupportedExtension for .png, got %v", err)
	}

	// 失敗した呼び出しで連番が消費されないことを確認
	name, _, err := gen.NextPhotoFileName(".jpg")
	if err != nil {
		t.Fatalf("Failed to generate file name: %v", err)
	}
	if name != "P0000001.JPG" {
		t.Errorf("Expected sequence not consumed by failed call, got %s", name)
	}
}

func TestNextDrawingFileName(t *testing.T) {
	gen := NewFileNameGenerator()

	// 図面はPDFも受け付ける
	name, num, err := gen.NextDrawingFileName(".pdf")
	if err != nil {
		t.Fatalf("Failed to generate drawing file name: %v", err)
	}
	if name != "D0000001.PDF" {
		t.Errorf("Expected D0000001.PDF, got %s", name)
	}
	if num != 1 {
		t.Errorf("Expected drawing number 1, got %d", num)
	}

	// 写真と図面の連番は独立している
	if _, _, err := gen.NextPhotoFileName(".jpg"); err != nil {
		t.Fatalf("Failed to generate photo file name: %v", err)
	}
	name, _, err = gen.NextDrawingFileName(".jpg")
	if err != nil {
		t.Fatalf("Failed to generate drawing file name: %v", err)
	}
	if name != "D0000002.JPG" {
		t.Errorf("Expected D0000002.JPG, got %s", name)
	}
}

func TestReset(t *testing.T) {
	gen := NewFileNameGenerator()
	if _, _, err := gen.NextPhotoFileName(".jpg"); err != nil {
		t.Fatalf("Failed to generate file name: %v", err)
	}

	if err := gen.Reset(1, 1); err != nil {
		t.Fatalf("Failed to reset generator: %v", err)
	}

	name, _, err := gen.NextPhotoFileName(".jpg")
	if err != nil {
		t.Fatalf("Failed to generate file name after reset: %v", err)
	}
	if name != "P0000001.JPG" {
		t.Errorf("Expected P0000001.JPG after reset, got %s", name)
	}
}

func TestIsValidPhotoFileName(t *testing.T) {
	tests := []struct {
		description string
		name        string
		want        bool
	}{
		{"標準的な写真ファイル名", "P0000123.JPG", true},
		{"TIFFの写真ファイル名", "P0000001.TIF", true},
		{"小文字・桁不足は不可", "p123.jpg", false},
		{"拡張子が小文字は不可", "P0000001.jpg", false},
		{"桁数が不足", "P000001.JPG", false},
		{"図面の接頭辞は不可", "D0000001.JPG", false},
		{"PDFは写真では不可", "P0000001.PDF", false},
	}

	for _, tt := range tests {
		if got := IsValidPhotoFileName(tt.name); got != tt.want {
			t.Errorf("%s: IsValidPhotoFileName(%q) = %v, want %v", tt.description, tt.name, got, tt.want)
		}
	}
}

func TestIsValidDrawingFileName(t *testing.T) {
	tests := []struct {
		description string
		name        string
		want        bool
	}{
		{"図面のPDF", "D0000001.PDF", true},
		{"図面のJPEG", "D0000002.JPG", true},
		{"写真の接頭辞は不可", "P0000001.JPG", false},
		{"小文字は不可", "d0000001.pdf", false},
	}

	for _, tt := range tests {
		if got := IsValidDrawingFileName(tt.name); got != tt.want {
			t.Errorf("%s: IsValidDrawingFileName(%q) = %v, want %v", tt.description, tt.name, got, tt.want)
		}
	}
}

func TestExtractSequenceNumber(t *testing.T) {
	num, err := ExtractSequenceNumber("P0000123.JPG")
	if err != nil {
		t.Fatalf("Failed to extract sequence number: %v", err)
	}
	if num != 123 {
		t.Errorf("Expected 123, got %d", num)
	}

	if _, err := ExtractSequenceNumber("photo.jpg"); err == nil {
		t.Error("Expected error for non-delivery file name")
	}
}

func TestNormalizePhotoExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".jpg", ".JPG"},
		{".JPEG", ".JPG"},
		{"jpeg", ".JPG"},
		{".tiff", ".TIF"},
		{".tif", ".TIF"},
	}

	for _, tt := range tests {
		got, err := NormalizePhotoExtension(tt.ext)
		if err != nil {
			t.Errorf("NormalizePhotoExtension(%q) returned error: %v", tt.ext, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizePhotoExtension(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}

	if _, err := NormalizePhotoExtension(".gif"); !errors.Is(err, ErrUnsupportedExtension) {
		t.Errorf("Expected ErrUnsupportedExtension for .gif, got %v", err)
	}
}

func TestFileNameFormat_BitExact(t *testing.T) {
	// 連番はゼロ埋め7桁であることを確認
	gen, err := NewFileNameGeneratorFrom(123, 1)
	if err != nil {
		t.Fatalf("Failed to create generator: %v", err)
	}
	name, _, err := gen.NextPhotoFileName(".jpg")
	if err != nil {
		t.Fatalf("Failed to generate file name: %v", err)
	}
	if name != fmt.Sprintf("P%07d.JPG", 123) {
		t.Errorf("Expected P0000123.JPG, got %s", name)
	}
}
