package delivery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/genbalog/genbalog/model"
)

// フォルダ構成の固定名。デジタル写真管理情報基準で定められています。
const (
	DefaultRootFolderName = "PHOTO"
	PicFolderName         = "PIC"
	DraFolderName         = "DRA"
	PhotoXMLFileName      = "PHOTO.XML"
	IndexXMLFileName      = "INDEX_D.XML"
)

// PhotoInfo は納品パッケージ内の1枚の写真のメタデータです。
// フォルダ構成の生成時に一度だけ作成され、以後変更されません。
type PhotoInfo struct {
	PhotoNumber      int    `json:"photo_number"` // 1始まりの連番
	FileName         string `json:"file_name"`    // 納品ファイル名
	Title            string `json:"title"`
	MajorCategory    string `json:"major_category"`
	Category         string `json:"category"`
	ConstructionType string `json:"construction_type,omitempty"`
	WorkType         string `json:"work_type,omitempty"`
	DetailType       string `json:"detail_type,omitempty"`
	ShootingDate     string `json:"shooting_date"` // YYYY-MM-DD
	ShootingLocation string `json:"shooting_location,omitempty"`
	IsRepresentative bool   `json:"is_representative"`
	Remarks          string `json:"remarks,omitempty"`
	Latitude         string `json:"latitude,omitempty"`  // 度分秒形式（N/S）
	Longitude        string `json:"longitude,omitempty"` // 度分秒形式（E/W）
}

// PhotoFileEntry はフォルダ構成内の写真ファイル1件を表します。
type PhotoFileEntry struct {
	OriginalFileName string    `json:"original_file_name"`
	DeliveryFileName string    `json:"delivery_file_name"`
	FilePath         string    `json:"file_path"`
	FileSize         int64     `json:"file_size"`
	Info             PhotoInfo `json:"photo_info"`
}

// DrawingFileEntry はフォルダ構成内の図面ファイル1件を表します。
// このパイプラインでは現状常に空ですが、構造としてはサポートします。
type DrawingFileEntry struct {
	OriginalFileName string `json:"original_file_name"`
	DeliveryFileName string `json:"delivery_file_name"`
	FilePath         string `json:"file_path"`
	FileSize         int64  `json:"file_size"`
}

// FolderStructure は納品パッケージ全体のフォルダ構成ディスクリプタです。
type FolderStructure struct {
	RootFolderName string             `json:"root_folder_name"`
	PhotoXMLPath   string             `json:"photo_xml_path"`
	PicFolderPath  string             `json:"pic_folder_path"`
	DraFolderPath  string             `json:"dra_folder_path,omitempty"` // 図面フォルダ（設定時のみ）
	PhotoFiles     []PhotoFileEntry   `json:"photo_files"`
	DrawingFiles   []DrawingFileEntry `json:"drawing_files"`
}

// FolderOptions はフォルダ構成生成のオプションです。
type FolderOptions struct {
	RootName        string // 空の場合はDefaultRootFolderName
	IncludeDrawings bool   // 図面フォルダ（DRA）を構成に含めるか
}

// GenerateFolderStructure は写真の集合から納品フォルダ構成を生成します。
//
// 処理順序:
//  1. 撮影日の昇順で安定ソート（同時刻は入力順を維持）
//  2. サポート外拡張子の写真を除外（エラーにはしない）
//  3. 含めた写真に納品ファイル名と連番を順番に割り当て
//  4. PhotoInfoへの純粋な変換（日付の正規化・緯度経度の度分秒化）
//
// 出力のPhotoFilesは処理順のまま並び、連番はエントリごとに1ずつ増加します。
func GenerateFolderStructure(photos []*model.ProjectPhoto, opts *FolderOptions) (*FolderStructure, error) {
	if opts == nil {
		opts = &FolderOptions{}
	}
	rootName := opts.RootName
	if rootName == "" {
		rootName = DefaultRootFolderName
	}

	// 撮影日の昇順で安定ソート
	sorted := make([]*model.ProjectPhoto, len(photos))
	copy(sorted, photos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ShootingDate.Before(sorted[j].ShootingDate)
	})

	fs := &FolderStructure{
		RootFolderName: rootName,
		PhotoXMLPath:   rootName + "/" + PhotoXMLFileName,
		PicFolderPath:  rootName + "/" + PicFolderName,
		PhotoFiles:     []PhotoFileEntry{},
		DrawingFiles:   []DrawingFileEntry{},
	}
	if opts.IncludeDrawings {
		fs.DraFolderPath = rootName + "/" + DraFolderName
	}

	gen := NewFileNameGenerator()
	for _, photo := range sorted {
		// サポート外の拡張子は黙って除外する
		if !IsSupportedPhotoExtension(photo.Extension()) {
			continue
		}
		deliveryName, number, err := gen.NextPhotoFileName(photo.Extension())
		if err != nil {
			return nil, fmt.Errorf("failed to assign delivery file name for %s: %w", photo.FileName, err)
		}
		fs.PhotoFiles = append(fs.PhotoFiles, PhotoFileEntry{
			OriginalFileName: photo.FileName,
			DeliveryFileName: deliveryName,
			FilePath:         fs.PicFolderPath + "/" + deliveryName,
			FileSize:         photo.FileSize,
			Info:             buildPhotoInfo(photo, number, deliveryName),
		})
	}

	return fs, nil
}

// buildPhotoInfo はProjectPhotoからPhotoInfoへの純粋な変換を行います。
func buildPhotoInfo(photo *model.ProjectPhoto, number int, deliveryName string) PhotoInfo {
	info := PhotoInfo{
		PhotoNumber:      number,
		FileName:         deliveryName,
		Title:            photo.Title,
		MajorCategory:    photo.MajorCategory,
		Category:         photo.Category,
		ConstructionType: photo.ConstructionType,
		WorkType:         photo.WorkType,
		DetailType:       photo.DetailType,
		ShootingLocation: photo.ShootingLocation,
		IsRepresentative: photo.IsRepresentative,
		Remarks:          photo.Remarks,
	}
	if !photo.ShootingDate.IsZero() {
		info.ShootingDate = photo.ShootingDate.Format("2006-01-02")
	}
	if photo.Location != nil {
		info.Latitude = FormatLatitudeDMS(photo.Location.Latitude)
		info.Longitude = FormatLongitudeDMS(photo.Location.Longitude)
	}
	return info
}

// RenderFolderTree はフォルダ構成をインデント付きのASCIIツリーとして描画します。
// 人間による事前確認用の表示です。
func RenderFolderTree(fs *FolderStructure) string {
	var sb strings.Builder
	sb.WriteString(fs.RootFolderName + "/\n")
	sb.WriteString("  " + PhotoXMLFileName + "\n")
	sb.WriteString("  " + PicFolderName + "/\n")
	for _, entry := range fs.PhotoFiles {
		sb.WriteString("    " + entry.DeliveryFileName + "\n")
	}
	if fs.DraFolderPath != "" {
		sb.WriteString("  " + DraFolderName + "/\n")
		for _, entry := range fs.DrawingFiles {
			sb.WriteString("    " + entry.DeliveryFileName + "\n")
		}
	}
	return sb.String()
}

// ValidateFolderStructure はフォルダ構成の簡易な構造チェックを行います。
// 完全なルールエンジン（Validator）とは別に、高速な事前チェックとして
// 利用できます。最初に見つかった問題をエラーとして返します。
func ValidateFolderStructure(fs *FolderStructure) error {
	if fs.RootFolderName == "" {
		return fmt.Errorf("root folder name is empty")
	}
	if len(fs.PhotoFiles) == 0 {
		return fmt.Errorf("folder structure contains no photos")
	}
	seen := make(map[string]bool, len(fs.PhotoFiles))
	for i, entry := range fs.PhotoFiles {
		if seen[entry.DeliveryFileName] {
			return fmt.Errorf("duplicate delivery file name: %s", entry.DeliveryFileName)
		}
		seen[entry.DeliveryFileName] = true
		if entry.Info.PhotoNumber != i+1 {
			return fmt.Errorf("photo number sequence broken at index %d: got %d, want %d", i, entry.Info.PhotoNumber, i+1)
		}
	}
	return nil
}
