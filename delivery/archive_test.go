package delivery

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
)

// readZipEntries はアーカイブの全エントリを名前→内容のマップとして読み出します。
func readZipEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open entry %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("Failed to read entry %s: %v", f.Name, err)
		}
		entries[f.Name] = content
	}
	return entries
}

func TestCreateDeliveryArchive(t *testing.T) {
	fs := validStructure()
	meta := testMetadata()
	contents := map[string][]byte{
		"a.jpg": []byte("jpeg-bytes-a"),
		"b.jpg": []byte("jpeg-bytes-b"),
	}

	result, err := CreateDeliveryArchive(fs, meta, contents)
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}

	if !result.Success {
		t.Error("Expected success")
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}
	// 写真2枚 + XML2件
	if result.FileCount != 4 {
		t.Errorf("Expected file count 4, got %d", result.FileCount)
	}

	entries := readZipEntries(t, result.Data)

	// XMLは構成どおりのパスに、アーカイブ内で再生成される
	photoXML, ok := entries["PHOTO/PHOTO.XML"]
	if !ok {
		t.Fatal("Expected PHOTO/PHOTO.XML in archive")
	}
	if !strings.Contains(string(photoXML), "<photoData>") {
		t.Error("Expected photoData element in archived PHOTO.XML")
	}
	indexXML, ok := entries["PHOTO/INDEX_D.XML"]
	if !ok {
		t.Fatal("Expected PHOTO/INDEX_D.XML in archive")
	}
	if !strings.Contains(string(indexXML), "<工事写真情報>") {
		t.Error("Expected 工事写真情報 element in archived INDEX_D.XML")
	}

	// 写真は納品ファイル名でPIC配下に入る
	if got := string(entries["PHOTO/PIC/P0000001.JPG"]); got != "jpeg-bytes-a" {
		t.Errorf("Expected photo bytes for P0000001.JPG, got %q", got)
	}
	if got := string(entries["PHOTO/PIC/P0000002.JPG"]); got != "jpeg-bytes-b" {
		t.Errorf("Expected photo bytes for P0000002.JPG, got %q", got)
	}
}

func TestCreateDeliveryArchive_PartialContent(t *testing.T) {
	// 3枚のうち2枚分しかバイト列がないケース
	fs := validStructure()
	fs.PhotoFiles = append(fs.PhotoFiles, PhotoFileEntry{
		OriginalFileName: "c.jpg",
		DeliveryFileName: "P0000003.JPG",
		FilePath:         "PHOTO/PIC/P0000003.JPG",
		FileSize:         1024,
		Info: PhotoInfo{
			PhotoNumber:  3,
			FileName:     "P0000003.JPG",
			Title:        "型枠設置",
			Category:     "施工状況写真",
			ShootingDate: "2025-06-03",
		},
	})
	contents := map[string][]byte{
		"a.jpg": []byte("jpeg-bytes-a"),
		"b.jpg": []byte("jpeg-bytes-b"),
	}

	result, err := CreateDeliveryArchive(fs, testMetadata(), contents)
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}

	// 欠落があってもアーカイブ自体は成功する
	if !result.Success {
		t.Error("Expected success despite missing content")
	}
	// 埋め込めた写真2枚 + XML2件
	if result.FileCount != 4 {
		t.Errorf("Expected file count 4, got %d", result.FileCount)
	}
	// 欠落ファイルがエラー一覧に名前付きで載る
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error entry, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "c.jpg") {
		t.Errorf("Expected missing file name in error, got %s", result.Errors[0])
	}

	entries := readZipEntries(t, result.Data)
	if _, ok := entries["PHOTO/PIC/P0000003.JPG"]; ok {
		t.Error("Missing content must not produce an archive entry")
	}
}

func TestCreateDeliveryArchive_EmptyContents(t *testing.T) {
	fs := validStructure()

	result, err := CreateDeliveryArchive(fs, testMetadata(), nil)
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}

	// XMLの2件だけが入る
	if result.FileCount != 2 {
		t.Errorf("Expected file count 2, got %d", result.FileCount)
	}
	if len(result.Errors) != 2 {
		t.Errorf("Expected 2 error entries, got %v", result.Errors)
	}
}
