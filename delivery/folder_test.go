package delivery

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/genbalog/genbalog/model"
)

// testPhoto はテスト用のProjectPhotoを組み立てます。
func testPhoto(fileName, title string, shootingDate time.Time) *model.ProjectPhoto {
	return &model.ProjectPhoto{
		ID:            uuid.New(),
		ProjectID:     uuid.New(),
		FileName:      fileName,
		FileSize:      1024,
		ShootingDate:  shootingDate,
		Title:         title,
		MajorCategory: "工事",
		Category:      "施工状況写真",
		CreatedAt:     time.Now(),
	}
}

func TestGenerateFolderStructure(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)
	photos := []*model.ProjectPhoto{
		testPhoto("site_b.jpg", "基礎配筋", base.AddDate(0, 0, 1)),
		testPhoto("site_a.jpg", "着工前", base),
		testPhoto("site_c.tiff", "型枠設置", base.AddDate(0, 0, 2)),
	}

	fs, err := GenerateFolderStructure(photos, nil)
	if err != nil {
		t.Fatalf("Failed to generate folder structure: %v", err)
	}

	if fs.RootFolderName != "PHOTO" {
		t.Errorf("Expected root folder PHOTO, got %s", fs.RootFolderName)
	}
	if fs.PhotoXMLPath != "PHOTO/PHOTO.XML" {
		t.Errorf("Expected PHOTO/PHOTO.XML, got %s", fs.PhotoXMLPath)
	}
	if fs.PicFolderPath != "PHOTO/PIC" {
		t.Errorf("Expected PHOTO/PIC, got %s", fs.PicFolderPath)
	}

	if len(fs.PhotoFiles) != 3 {
		t.Fatalf("Expected 3 photo files, got %d", len(fs.PhotoFiles))
	}

	// 撮影日の昇順に並び替えられている
	if fs.PhotoFiles[0].OriginalFileName != "site_a.jpg" {
		t.Errorf("Expected site_a.jpg first, got %s", fs.PhotoFiles[0].OriginalFileName)
	}

	// 連番は1始まりで連続、納品ファイル名は重複しない
	seen := make(map[string]bool)
	for i, entry := range fs.PhotoFiles {
		if entry.Info.PhotoNumber != i+1 {
			t.Errorf("Expected photo number %d at index %d, got %d", i+1, i, entry.Info.PhotoNumber)
		}
		if seen[entry.DeliveryFileName] {
			t.Errorf("Duplicate delivery file name: %s", entry.DeliveryFileName)
		}
		seen[entry.DeliveryFileName] = true
		if !IsValidPhotoFileName(entry.DeliveryFileName) {
			t.Errorf("Invalid delivery file name: %s", entry.DeliveryFileName)
		}
		if !strings.HasPrefix(entry.FilePath, "PHOTO/PIC/") {
			t.Errorf("Expected file path under PHOTO/PIC, got %s", entry.FilePath)
		}
	}

	// TIFFは.TIFに正規化される
	if fs.PhotoFiles[2].DeliveryFileName != "P0000003.TIF" {
		t.Errorf("Expected P0000003.TIF, got %s", fs.PhotoFiles[2].DeliveryFileName)
	}
}

func TestGenerateFolderStructure_UnsupportedExtension(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)
	photos := []*model.ProjectPhoto{
		testPhoto("valid.jpg", "着工前", base),
		testPhoto("memo.png", "除外対象", base.AddDate(0, 0, 1)),
		testPhoto("valid2.jpg", "完成", base.AddDate(0, 0, 2)),
	}

	fs, err := GenerateFolderStructure(photos, nil)
	if err != nil {
		t.Fatalf("Expected no error for unsupported extension, got: %v", err)
	}

	// PNGは黙って除外され、連番は詰められる
	if len(fs.PhotoFiles) != 2 {
		t.Fatalf("Expected 2 photo files, got %d", len(fs.PhotoFiles))
	}
	for _, entry := range fs.PhotoFiles {
		if entry.OriginalFileName == "memo.png" {
			t.Error("Unsupported extension photo should be excluded")
		}
	}
	if fs.PhotoFiles[1].Info.PhotoNumber != 2 {
		t.Errorf("Expected contiguous photo numbers after exclusion, got %d", fs.PhotoFiles[1].Info.PhotoNumber)
	}
}

func TestGenerateFolderStructure_Options(t *testing.T) {
	photos := []*model.ProjectPhoto{
		testPhoto("a.jpg", "写真", time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)),
	}

	fs, err := GenerateFolderStructure(photos, &FolderOptions{
		RootName:        "PHOTO01",
		IncludeDrawings: true,
	})
	if err != nil {
		t.Fatalf("Failed to generate folder structure: %v", err)
	}

	if fs.RootFolderName != "PHOTO01" {
		t.Errorf("Expected root folder PHOTO01, got %s", fs.RootFolderName)
	}
	if fs.DraFolderPath != "PHOTO01/DRA" {
		t.Errorf("Expected PHOTO01/DRA, got %s", fs.DraFolderPath)
	}
}

func TestBuildPhotoInfo_Location(t *testing.T) {
	photo := testPhoto("a.jpg", "東京駅前", time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local))
	photo.Location = &model.GeoLocation{Latitude: 35.689501, Longitude: 139.691722}

	fs, err := GenerateFolderStructure([]*model.ProjectPhoto{photo}, nil)
	if err != nil {
		t.Fatalf("Failed to generate folder structure: %v", err)
	}

	info := fs.PhotoFiles[0].Info
	if info.ShootingDate != "2025-06-01" {
		t.Errorf("Expected shooting date 2025-06-01, got %s", info.ShootingDate)
	}
	if !strings.HasPrefix(info.Latitude, "N") {
		t.Errorf("Expected latitude with N prefix, got %s", info.Latitude)
	}
	if !strings.HasPrefix(info.Longitude, "E") {
		t.Errorf("Expected longitude with E prefix, got %s", info.Longitude)
	}
}

func TestFormatLatitudeDMS(t *testing.T) {
	tests := []struct {
		description string
		lat         float64
		want        string
	}{
		{"北緯の変換", 35.689722, "N0354122.999"},
		{"ちょうどの度", 35.0, "N0350000.000"},
		{"南緯の変換", -33.5, "S0333000.000"},
		{"秒の丸めで度に繰り上がる", 35.9999999, "N0360000.000"},
	}

	for _, tt := range tests {
		if got := FormatLatitudeDMS(tt.lat); got != tt.want {
			t.Errorf("%s: FormatLatitudeDMS(%v) = %q, want %q", tt.description, tt.lat, got, tt.want)
		}
	}
}

func TestFormatLongitudeDMS(t *testing.T) {
	tests := []struct {
		description string
		lon         float64
		want        string
	}{
		{"東経は度3桁", 139.691667, "E1394130.001"},
		{"1桁の度のゼロ埋め", 9.25, "E0091500.000"},
		{"西経の変換", -0.5, "W0003000.000"},
	}

	for _, tt := range tests {
		if got := FormatLongitudeDMS(tt.lon); got != tt.want {
			t.Errorf("%s: FormatLongitudeDMS(%v) = %q, want %q", tt.description, tt.lon, got, tt.want)
		}
	}
}

func TestRenderFolderTree(t *testing.T) {
	photos := []*model.ProjectPhoto{
		testPhoto("a.jpg", "写真", time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)),
	}
	fs, err := GenerateFolderStructure(photos, nil)
	if err != nil {
		t.Fatalf("Failed to generate folder structure: %v", err)
	}

	tree := RenderFolderTree(fs)
	if !strings.Contains(tree, "PHOTO/") {
		t.Error("Expected root folder in tree output")
	}
	if !strings.Contains(tree, "PHOTO.XML") {
		t.Error("Expected PHOTO.XML in tree output")
	}
	if !strings.Contains(tree, "P0000001.JPG") {
		t.Error("Expected delivery file name in tree output")
	}
}

func TestValidateFolderStructure(t *testing.T) {
	photos := []*model.ProjectPhoto{
		testPhoto("a.jpg", "写真", time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)),
	}
	fs, err := GenerateFolderStructure(photos, nil)
	if err != nil {
		t.Fatalf("Failed to generate folder structure: %v", err)
	}

	if err := ValidateFolderStructure(fs); err != nil {
		t.Errorf("Expected valid structure, got: %v", err)
	}

	// 写真が0枚の場合はエラー
	empty := &FolderStructure{RootFolderName: "PHOTO"}
	if err := ValidateFolderStructure(empty); err == nil {
		t.Error("Expected error for empty structure")
	}
}
