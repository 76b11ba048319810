package delivery

import (
	"strings"
	"testing"
	"time"

	"github.com/genbalog/genbalog/model"
)

func testMetadata() *model.ExportMetadata {
	return &model.ExportMetadata{
		ConstructionName:   "国道1号線舗装補修工事",
		ConstructionNumber: "R7-001",
		FieldName:          "土木",
		OrdererName:        "国土交通省",
		ContractorName:     "株式会社テスト建設",
		Location:           "東京都千代田区",
		StartDate:          time.Date(2025, 4, 1, 0, 0, 0, 0, time.Local),
		EndDate:            time.Date(2026, 3, 31, 0, 0, 0, 0, time.Local),
		SoftwareName:       "genbalog",
	}
}

func testFolderStructure(t *testing.T) *FolderStructure {
	t.Helper()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)
	photo1 := testPhoto("a.jpg", "着工前", base)
	photo1.IsRepresentative = true
	photo1.ShootingLocation = "起点側"
	photo2 := testPhoto("b.jpg", "基礎配筋", base.AddDate(0, 0, 1))
	photo2.Location = &model.GeoLocation{Latitude: 35.689501, Longitude: 139.691722}

	fs, err := GenerateFolderStructure([]*model.ProjectPhoto{photo1, photo2}, nil)
	if err != nil {
		t.Fatalf("Failed to generate folder structure: %v", err)
	}
	return fs
}

func TestGeneratePhotoXML(t *testing.T) {
	fs := testFolderStructure(t)

	xml := GeneratePhotoXML(fs, nil)

	// XML宣言とルート要素
	if !strings.HasPrefix(xml, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("Expected XML declaration at start")
	}
	if !strings.Contains(xml, "<photoData>") || !strings.Contains(xml, "</photoData>") {
		t.Error("Expected photoData root element")
	}

	// 写真ごとの必須要素
	if !strings.Contains(xml, "<photoNumber>1</photoNumber>") {
		t.Error("Expected photoNumber 1")
	}
	if !strings.Contains(xml, "<photoNumber>2</photoNumber>") {
		t.Error("Expected photoNumber 2")
	}
	if !strings.Contains(xml, "<fileName>P0000001.JPG</fileName>") {
		t.Error("Expected delivery file name element")
	}
	if !strings.Contains(xml, "<title>着工前</title>") {
		t.Error("Expected title element")
	}
	if !strings.Contains(xml, "<isRepresentative>true</isRepresentative>") {
		t.Error("Expected isRepresentative true for representative photo")
	}

	// 任意項目は値がある写真のみ
	if !strings.Contains(xml, "<shootingLocation>起点側</shootingLocation>") {
		t.Error("Expected shootingLocation for photo1")
	}
	if strings.Count(xml, "<shootingLocation>") != 1 {
		t.Error("Expected shootingLocation element only where a value exists")
	}

	// 位置情報はネストした要素として出力される
	if !strings.Contains(xml, "<location>") || !strings.Contains(xml, "<latitude>N") {
		t.Error("Expected nested location element with DMS latitude")
	}

	// 同一入力からは同一出力（決定性）
	if xml != GeneratePhotoXML(fs, nil) {
		t.Error("Expected deterministic output for identical input")
	}
}

func TestGeneratePhotoXML_Escaping(t *testing.T) {
	photo := testPhoto("a.jpg", `切土<法面> & "整形"`, time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local))
	fs, err := GenerateFolderStructure([]*model.ProjectPhoto{photo}, nil)
	if err != nil {
		t.Fatalf("Failed to generate folder structure: %v", err)
	}

	xml := GeneratePhotoXML(fs, nil)

	if !strings.Contains(xml, "切土&lt;法面&gt; &amp; &quot;整形&quot;") {
		t.Errorf("Expected escaped title in XML, got: %s", xml)
	}
	if strings.Contains(xml, `<title>切土<法面>`) {
		t.Error("Raw special characters must not appear in text nodes")
	}
}

func TestParsePhotoXML_AlwaysNil(t *testing.T) {
	// ラウンドトリップのインポートは未サポート
	if got := ParsePhotoXML(`<?xml version="1.0"?><photoData></photoData>`); got != nil {
		t.Errorf("Expected nil from ParsePhotoXML, got %v", got)
	}
}

func TestGenerateIndexXML(t *testing.T) {
	fs := testFolderStructure(t)
	meta := testMetadata()

	xml := GenerateIndexXML(fs, meta, nil)

	if !strings.HasPrefix(xml, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("Expected XML declaration at start")
	}

	// 必須セクション
	for _, tag := range IndexXMLRequiredTags {
		if !strings.Contains(xml, "<"+tag+">") || !strings.Contains(xml, "</"+tag+">") {
			t.Errorf("Expected required tag pair for %s", tag)
		}
	}

	if !strings.Contains(xml, "<工事名称>国道1号線舗装補修工事</工事名称>") {
		t.Error("Expected construction name element")
	}
	if !strings.Contains(xml, "<請負者名称>株式会社テスト建設</請負者名称>") {
		t.Error("Expected contractor name element")
	}
	if !strings.Contains(xml, "<工期開始日>2025-04-01</工期開始日>") {
		t.Error("Expected start date element")
	}
	if !strings.Contains(xml, "<工期終了日>2026-03-31</工期終了日>") {
		t.Error("Expected end date element")
	}
	if !strings.Contains(xml, "<写真フォルダ名>PHOTO/PIC</写真フォルダ名>") {
		t.Error("Expected photo folder path element")
	}

	// 概要の枚数
	if !strings.Contains(xml, "<写真枚数>2</写真枚数>") {
		t.Error("Expected photo count 2")
	}
	if !strings.Contains(xml, "<代表写真枚数>1</代表写真枚数>") {
		t.Error("Expected representative count 1")
	}

	// メディア情報は常に1枚目/全1枚
	if !strings.Contains(xml, "<メディア番号>1</メディア番号>") {
		t.Error("Expected media number 1")
	}

	// 写真情報には納品ファイル名が列挙される
	if !strings.Contains(xml, "<写真ファイル名>P0000001.JPG</写真ファイル名>") {
		t.Error("Expected delivery file name in 写真情報 section")
	}

	// 施設情報は常に空要素
	if !strings.Contains(xml, "<施設情報></施設情報>") {
		t.Error("Expected empty 施設情報 element")
	}

	if !strings.Contains(xml, "<ソフトメーカ名>genbalog</ソフトメーカ名>") {
		t.Error("Expected software name element")
	}
}

func TestGenerateIndexXML_OptionalFields(t *testing.T) {
	fs := testFolderStructure(t)
	meta := testMetadata()
	meta.ConstructionNumber = ""
	meta.OrdererName = ""
	meta.SoftwareName = ""

	xml := GenerateIndexXML(fs, meta, nil)

	// 任意項目は省略され、セクション自体は残る
	if strings.Contains(xml, "<工事番号>") {
		t.Error("Expected 工事番号 to be omitted when empty")
	}
	if strings.Contains(xml, "<発注者名称>") {
		t.Error("Expected 発注者名称 to be omitted when empty")
	}
	if !strings.Contains(xml, "<発注者情報>") {
		t.Error("Expected 発注者情報 section to remain")
	}
}

func TestIsValidXMLStructure(t *testing.T) {
	fs := testFolderStructure(t)
	xml := GeneratePhotoXML(fs, nil)

	if !IsValidXMLStructure(xml, PhotoXMLRequiredTags) {
		t.Error("Expected generated PHOTO.XML to pass structure check")
	}
	if IsValidXMLStructure("<photoData></photoData>", PhotoXMLRequiredTags) {
		t.Error("Expected failure without XML declaration")
	}
	if IsValidXMLStructure(`<?xml version="1.0"?><photoData>`, PhotoXMLRequiredTags) {
		t.Error("Expected failure for unclosed required tag")
	}
}

func TestXMLOptions_CustomIndent(t *testing.T) {
	fs := testFolderStructure(t)

	xml := GeneratePhotoXML(fs, &XMLOptions{Indent: "\t"})

	if !strings.Contains(xml, "\t<photo>") {
		t.Error("Expected tab-indented photo element")
	}
}
