// Package delivery は、デジタル写真管理情報基準に従った電子納品
// パッケージの生成パイプラインを提供します。
package delivery

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// 連番の上限。7桁のゼロ埋め表現に収まる最大値です。
const MaxSequenceNumber = 9999999

// ErrSequenceOverflow は連番が1〜9999999の範囲を外れた場合のエラーです。
var ErrSequenceOverflow = errors.New("sequence number out of range (1-9999999)")

// ErrUnsupportedExtension は納品対象外の拡張子が指定された場合のエラーです。
var ErrUnsupportedExtension = errors.New("unsupported file extension")

var (
	photoFileNamePattern   = regexp.MustCompile(`^P\d{7}\.(JPG|TIF)$`)
	drawingFileNamePattern = regexp.MustCompile(`^D\d{7}\.(JPG|TIF|PDF)$`)
	sequenceNumberPattern  = regexp.MustCompile(`^[PD](\d{7})\.`)
)

// FileNameGenerator は納品ファイル名（P0000001.JPGなど）の連番を払い出します。
// カウンターはインスタンスごとに独立しており、複数のエクスポートを
// 並行実行しても干渉しません。
type FileNameGenerator struct {
	photoSeq   int
	drawingSeq int
}

// NewFileNameGenerator は写真・図面とも連番1から始まるジェネレータを作成します。
func NewFileNameGenerator() *FileNameGenerator {
	return &FileNameGenerator{photoSeq: 1, drawingSeq: 1}
}

// NewFileNameGeneratorFrom は任意の開始連番を持つジェネレータを作成します。
func NewFileNameGeneratorFrom(startPhoto, startDrawing int) (*FileNameGenerator, error) {
	if err := ValidateSequenceNumber(startPhoto); err != nil {
		return nil, err
	}
	if err := ValidateSequenceNumber(startDrawing); err != nil {
		return nil, err
	}
	return &FileNameGenerator{photoSeq: startPhoto, drawingSeq: startDrawing}, nil
}

// NextPhotoFileName は次の写真ファイル名を払い出し、割り当てた連番とともに返します。
// 名前の生成と連番の消費を単一の呼び出しにまとめているため、呼び出し側が
// カウンターを別途読み出す必要はありません。
func (g *FileNameGenerator) NextPhotoFileName(ext string) (string, int, error) {
	if err := ValidateSequenceNumber(g.photoSeq); err != nil {
		return "", 0, err
	}
	normalized, err := NormalizePhotoExtension(ext)
	if err != nil {
		return "", 0, err
	}
	number := g.photoSeq
	name := fmt.Sprintf("P%07d%s", number, normalized)
	g.photoSeq++
	return name, number, nil
}

// NextDrawingFileName は次の図面ファイル名を払い出します。写真と異なりPDFも許容します。
func (g *FileNameGenerator) NextDrawingFileName(ext string) (string, int, error) {
	if err := ValidateSequenceNumber(g.drawingSeq); err != nil {
		return "", 0, err
	}
	normalized, err := NormalizeDrawingExtension(ext)
	if err != nil {
		return "", 0, err
	}
	number := g.drawingSeq
	name := fmt.Sprintf("D%07d%s", number, normalized)
	g.drawingSeq++
	return name, number, nil
}

// CurrentPhotoNumber は次の払い出しで割り当てられる写真連番を返します。
func (g *FileNameGenerator) CurrentPhotoNumber() int {
	return g.photoSeq
}

// CurrentDrawingNumber は次の払い出しで割り当てられる図面連番を返します。
func (g *FileNameGenerator) CurrentDrawingNumber() int {
	return g.drawingSeq
}

// Reset は両方のカウンターを指定した開始値に再初期化します。
// フォルダ構成の再生成時に決定性を保証するために使用します。
func (g *FileNameGenerator) Reset(startPhoto, startDrawing int) error {
	if err := ValidateSequenceNumber(startPhoto); err != nil {
		return err
	}
	if err := ValidateSequenceNumber(startDrawing); err != nil {
		return err
	}
	g.photoSeq = startPhoto
	g.drawingSeq = startDrawing
	return nil
}

// ValidateSequenceNumber は連番が1〜9999999の範囲内であることを検証します。
func ValidateSequenceNumber(n int) error {
	if n < 1 || n > MaxSequenceNumber {
		return fmt.Errorf("%w: %d", ErrSequenceOverflow, n)
	}
	return nil
}

// NormalizePhotoExtension は写真の拡張子を基準に従った形式に正規化します。
// JPEG→.JPG、TIFF→.TIFのエイリアスを解決し、大文字のドット付き拡張子を返します。
func NormalizePhotoExtension(ext string) (string, error) {
	switch strings.ToUpper(strings.TrimPrefix(ext, ".")) {
	case "JPG", "JPEG":
		return ".JPG", nil
	case "TIF", "TIFF":
		return ".TIF", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedExtension, ext)
	}
}

// NormalizeDrawingExtension は図面の拡張子を正規化します。写真の拡張子に加えPDFを許容します。
func NormalizeDrawingExtension(ext string) (string, error) {
	if strings.ToUpper(strings.TrimPrefix(ext, ".")) == "PDF" {
		return ".PDF", nil
	}
	return NormalizePhotoExtension(ext)
}

// IsSupportedPhotoExtension は写真として納品可能な拡張子かどうかを判定します。
func IsSupportedPhotoExtension(ext string) bool {
	_, err := NormalizePhotoExtension(ext)
	return err == nil
}

// ExtractSequenceNumber は納品ファイル名から連番を取り出します。
func ExtractSequenceNumber(fileName string) (int, error) {
	m := sequenceNumberPattern.FindStringSubmatch(fileName)
	if m == nil {
		return 0, fmt.Errorf("invalid delivery file name: %s", fileName)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, err
	}
	return n, nil
}

// IsValidPhotoFileName は写真の納品ファイル名として妥当かどうかを判定します。
// 大文字・桁数とも厳密に検査します。
func IsValidPhotoFileName(fileName string) bool {
	return photoFileNamePattern.MatchString(fileName)
}

// IsValidDrawingFileName は図面の納品ファイル名として妥当かどうかを判定します。
func IsValidDrawingFileName(fileName string) bool {
	return drawingFileNamePattern.MatchString(fileName)
}

// IsValidDeliveryFileName は写真・図面いずれかの納品ファイル名として妥当かどうかを判定します。
func IsValidDeliveryFileName(fileName string) bool {
	return IsValidPhotoFileName(fileName) || IsValidDrawingFileName(fileName)
}
