package delivery

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DefaultMaxFileSizeMB は警告W005のファイルサイズ閾値の既定値です。
const DefaultMaxFileSizeMB = 10

// shootingDatePattern はYYYY-MM-DD形式の形状チェックです。
// 形状が合っていても暦日として不正な値はE204で検出します。
var shootingDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidationError は検証で検出された1件のエラーまたは警告です。
type ValidationError struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	TargetFile  string `json:"target_file,omitempty"`
	TargetField string `json:"target_field,omitempty"`
	Details     string `json:"details,omitempty"`
}

// ValidationResult は1回の検証の結果です。検証のたびに新しく生成され、
// 生成後に変更されることはありません。
type ValidationResult struct {
	IsValid      bool              `json:"is_valid"`
	Errors       []ValidationError `json:"errors"`
	Warnings     []ValidationError `json:"warnings"`
	ValidatedAt  time.Time         `json:"validated_at"`
	TargetFolder string            `json:"target_folder"`
}

// ruleFunc は検証ルールです。フォルダ構成を検査してエラーの一覧を返す純粋関数です。
type ruleFunc func(fs *FolderStructure) []ValidationError

// Validator は納品フォルダ構成のルールエンジンです。
// ルールは閉じた集合で、固定順（構造→ファイル名→メタデータ→連番）で実行されます。
type Validator struct {
	MaxFileSizeMB int // W005の閾値（MB）
}

// NewValidator は既定の設定でValidatorを作成します。
func NewValidator() *Validator {
	return &Validator{MaxFileSizeMB: DefaultMaxFileSizeMB}
}

// Validate はフォルダ構成に対して全ルールを実行し、結果を返します。
// ドメイン上の問題でエラーを返すことはなく、常に完全な結果を生成します。
// フォルダ構成はビルダーが正しく生成しているはずですが、外部で再構築された
// 構成が渡される可能性があるため、ここでは入力を信頼せずに再検証します。
func (v *Validator) Validate(fs *FolderStructure) *ValidationResult {
	rules := []ruleFunc{
		checkStructure,
		checkFileNaming,
		checkMetadata,
		checkSequence,
	}

	var errs []ValidationError
	for _, rule := range rules {
		errs = append(errs, rule(fs)...)
	}

	// 警告はルールとは独立に、常に実行する
	warnings := v.collectWarnings(fs)

	return &ValidationResult{
		IsValid:      len(errs) == 0,
		Errors:       errs,
		Warnings:     warnings,
		ValidatedAt:  time.Now(),
		TargetFolder: fs.RootFolderName,
	}
}

// ValidateXML はXML文書の軽量な構造チェックのみを行います。
// フォルダ構成の検証とは独立しており、両者の組み合わせは呼び出し側
// （オーケストレーター）が行います。
func (v *Validator) ValidateXML(xmlStr string, requiredTags []string) *ValidationResult {
	var errs []ValidationError
	if !hasXMLDeclaration(xmlStr) {
		errs = append(errs, ValidationError{
			Code:    "E301",
			Message: "XML宣言がありません",
		})
	}
	for _, tag := range missingXMLTags(xmlStr, requiredTags) {
		errs = append(errs, ValidationError{
			Code:    "E302",
			Message: "必須タグが不足しています",
			Details: tag,
		})
	}
	return &ValidationResult{
		IsValid:     len(errs) == 0,
		Errors:      errs,
		Warnings:    nil,
		ValidatedAt: time.Now(),
	}
}

// checkStructure はフォルダ構成の必須要素を検査します（E001〜E004）。
func checkStructure(fs *FolderStructure) []ValidationError {
	var errs []ValidationError
	if fs.RootFolderName == "" {
		errs = append(errs, ValidationError{
			Code:    "E001",
			Message: "ルートフォルダ名が設定されていません",
		})
	}
	if fs.PhotoXMLPath == "" {
		errs = append(errs, ValidationError{
			Code:    "E002",
			Message: "PHOTO.XMLのパスが設定されていません",
		})
	}
	if fs.PicFolderPath == "" {
		errs = append(errs, ValidationError{
			Code:    "E003",
			Message: "写真フォルダ（PIC）のパスが設定されていません",
		})
	}
	if len(fs.PhotoFiles) == 0 {
		errs = append(errs, ValidationError{
			Code:    "E004",
			Message: "納品対象の写真がありません",
		})
	}
	return errs
}

// checkFileNaming は納品ファイル名の形式と一意性を検査します（E101〜E103）。
func checkFileNaming(fs *FolderStructure) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, entry := range fs.PhotoFiles {
		if !IsValidPhotoFileName(entry.DeliveryFileName) {
			errs = append(errs, ValidationError{
				Code:       "E101",
				Message:    "写真の納品ファイル名が基準の形式に適合していません",
				TargetFile: entry.DeliveryFileName,
			})
		}
		if seen[entry.DeliveryFileName] {
			errs = append(errs, ValidationError{
				Code:       "E103",
				Message:    "納品ファイル名が重複しています",
				TargetFile: entry.DeliveryFileName,
			})
		}
		seen[entry.DeliveryFileName] = true
	}
	for _, entry := range fs.DrawingFiles {
		if !IsValidDrawingFileName(entry.DeliveryFileName) {
			errs = append(errs, ValidationError{
				Code:       "E102",
				Message:    "図面の納品ファイル名が基準の形式に適合していません",
				TargetFile: entry.DeliveryFileName,
			})
		}
		if seen[entry.DeliveryFileName] {
			errs = append(errs, ValidationError{
				Code:       "E103",
				Message:    "納品ファイル名が重複しています",
				TargetFile: entry.DeliveryFileName,
			})
		}
		seen[entry.DeliveryFileName] = true
	}
	return errs
}

// checkMetadata は写真ごとの必須メタデータを検査します（E201〜E204）。
func checkMetadata(fs *FolderStructure) []ValidationError {
	var errs []ValidationError
	for _, entry := range fs.PhotoFiles {
		info := entry.Info
		if info.Title == "" {
			errs = append(errs, ValidationError{
				Code:        "E201",
				Message:     "写真タイトルが設定されていません",
				TargetFile:  entry.DeliveryFileName,
				TargetField: "title",
			})
		}
		if info.ShootingDate == "" {
			errs = append(errs, ValidationError{
				Code:        "E202",
				Message:     "撮影年月日が設定されていません",
				TargetFile:  entry.DeliveryFileName,
				TargetField: "shooting_date",
			})
		} else if !isValidShootingDate(info.ShootingDate) {
			errs = append(errs, ValidationError{
				Code:        "E204",
				Message:     "撮影年月日の形式が不正です",
				TargetFile:  entry.DeliveryFileName,
				TargetField: "shooting_date",
				Details:     info.ShootingDate,
			})
		}
		if info.Category == "" {
			errs = append(errs, ValidationError{
				Code:        "E203",
				Message:     "写真区分が設定されていません",
				TargetFile:  entry.DeliveryFileName,
				TargetField: "category",
			})
		}
	}
	return errs
}

// isValidShootingDate はYYYY-MM-DD形式かつ暦日として妥当かを検査します。
func isValidShootingDate(s string) bool {
	if !shootingDatePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// checkSequence は写真連番がソート後に1..Nの連続した列になることを検査します（E104）。
// ビルダーの出力順序の不変条件と同じ内容ですが、入力を信頼せず独立に再検査します。
func checkSequence(fs *FolderStructure) []ValidationError {
	if len(fs.PhotoFiles) == 0 {
		return nil
	}
	numbers := make([]int, 0, len(fs.PhotoFiles))
	for _, entry := range fs.PhotoFiles {
		numbers = append(numbers, entry.Info.PhotoNumber)
	}
	sort.Ints(numbers)
	for i, n := range numbers {
		if n != i+1 {
			return []ValidationError{{
				Code:    "E104",
				Message: "写真連番に欠番または重複があります",
				Details: fmt.Sprintf("expected %d, got %d", i+1, n),
			}}
		}
	}
	return nil
}

// collectWarnings は助言的な警告を収集します。警告は検証の合否に影響しません。
func (v *Validator) collectWarnings(fs *FolderStructure) []ValidationError {
	var warnings []ValidationError

	maxMB := v.MaxFileSizeMB
	if maxMB <= 0 {
		maxMB = DefaultMaxFileSizeMB
	}
	maxBytes := int64(maxMB) * 1024 * 1024

	hasRepresentative := false
	for _, entry := range fs.PhotoFiles {
		if entry.Info.IsRepresentative {
			hasRepresentative = true
		}
		if entry.Info.ShootingLocation == "" {
			warnings = append(warnings, ValidationError{
				Code:       "W001",
				Message:    "撮影箇所が設定されていません",
				TargetFile: entry.DeliveryFileName,
			})
		}
		if entry.Info.Latitude == "" || entry.Info.Longitude == "" {
			warnings = append(warnings, ValidationError{
				Code:       "W004",
				Message:    "撮影位置（緯度経度）が設定されていません",
				TargetFile: entry.DeliveryFileName,
			})
		}
		if entry.FileSize > maxBytes {
			warnings = append(warnings, ValidationError{
				Code:       "W005",
				Message:    fmt.Sprintf("ファイルサイズが%dMBを超えています", maxMB),
				TargetFile: entry.DeliveryFileName,
				Details:    FormatFileSize(entry.FileSize),
			})
		}
	}
	if len(fs.PhotoFiles) > 0 && !hasRepresentative {
		warnings = append(warnings, ValidationError{
			Code:    "W003",
			Message: "代表写真が指定されていません",
		})
	}
	return warnings
}

// FormatValidationResult は検証結果を固定幅の人間可読なテキストとして描画します。
// この出力はCLIやUIでそのまま表示されるため、レイアウトを変更しないでください。
func FormatValidationResult(r *ValidationResult) string {
	var sb strings.Builder
	line := strings.Repeat("=", 50)
	thin := strings.Repeat("-", 50)

	sb.WriteString(line + "\n")
	sb.WriteString(" 電子納品 検証結果\n")
	sb.WriteString(line + "\n")
	sb.WriteString("検証日時: " + r.ValidatedAt.Format("2006-01-02 15:04:05") + "\n")
	sb.WriteString("対象フォルダ: " + r.TargetFolder + "\n")
	if r.IsValid {
		sb.WriteString("判定: 合格\n")
	} else {
		sb.WriteString("判定: 不合格\n")
	}
	sb.WriteString(thin + "\n")

	sb.WriteString(fmt.Sprintf("エラー (%d件):\n", len(r.Errors)))
	for _, e := range r.Errors {
		writeValidationEntry(&sb, e)
	}
	sb.WriteString(fmt.Sprintf("警告 (%d件):\n", len(r.Warnings)))
	for _, w := range r.Warnings {
		writeValidationEntry(&sb, w)
	}
	sb.WriteString(line + "\n")
	return sb.String()
}

func writeValidationEntry(sb *strings.Builder, e ValidationError) {
	sb.WriteString(fmt.Sprintf("  [%s] %s\n", e.Code, e.Message))
	if e.TargetFile != "" {
		sb.WriteString("         ファイル: " + e.TargetFile + "\n")
	}
	if e.TargetField != "" {
		sb.WriteString("         項目: " + e.TargetField + "\n")
	}
	if e.Details != "" {
		sb.WriteString("         詳細: " + e.Details + "\n")
	}
}

// FormatValidationResultAsJSON は検証結果をインデント付きJSON文字列に変換します。
// 変換結果をパースすると元の結果とフィールド単位で一致します。
func FormatValidationResultAsJSON(r *ValidationResult) (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
