package delivery

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"time"

	"github.com/genbalog/genbalog/model"
)

// ArchiveResult はZIPアーカイブ生成の結果です。
// 一部の写真データが欠けていてもアーカイブ自体は生成され、
// 欠落ファイルはErrorsに記録されます。
type ArchiveResult struct {
	Success   bool      `json:"success"`
	Data      []byte    `json:"-"`
	FileCount int       `json:"file_count"`
	TotalSize int64     `json:"total_size"`
	Errors    []string  `json:"errors,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateDeliveryArchive はフォルダ構成どおりのZIPアーカイブをメモリ上に生成します。
// contentsのキーは写真の元ファイル名で、値が画像のバイト列です。
// PHOTO.XMLとINDEX_D.XMLはここで再生成してアーカイブに含めます。
func CreateDeliveryArchive(fs *FolderStructure, meta *model.ExportMetadata, contents map[string][]byte) (*ArchiveResult, error) {
	result := &ArchiveResult{
		CreatedAt: time.Now(),
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	writeEntry := func(name string, data []byte) error {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		result.FileCount++
		result.TotalSize += int64(len(data))
		return nil
	}

	photoXML := GeneratePhotoXML(fs, nil)
	if err := writeEntry(fs.PhotoXMLPath, []byte(photoXML)); err != nil {
		return nil, fmt.Errorf("PHOTO.XMLの書き込みに失敗しました: %w", err)
	}

	indexXML := GenerateIndexXML(fs, meta, nil)
	indexPath := fs.RootFolderName + "/" + IndexXMLFileName
	if err := writeEntry(indexPath, []byte(indexXML)); err != nil {
		return nil, fmt.Errorf("INDEX_D.XMLの書き込みに失敗しました: %w", err)
	}

	for _, entry := range fs.PhotoFiles {
		data, ok := contents[entry.OriginalFileName]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("写真データがありません: %s", entry.OriginalFileName))
			continue
		}
		if err := writeEntry(entry.FilePath, data); err != nil {
			return nil, fmt.Errorf("写真の書き込みに失敗しました %s: %w", entry.FilePath, err)
		}
	}

	for _, entry := range fs.DrawingFiles {
		data, ok := contents[entry.OriginalFileName]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("図面データがありません: %s", entry.OriginalFileName))
			continue
		}
		if err := writeEntry(entry.FilePath, data); err != nil {
			return nil, fmt.Errorf("図面の書き込みに失敗しました %s: %w", entry.FilePath, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("アーカイブのクローズに失敗しました: %w", err)
	}

	result.Success = true
	result.Data = buf.Bytes()
	return result, nil
}
