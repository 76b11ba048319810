package delivery

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/genbalog/genbalog/model"
)

// ConstructionInfo はレポートに表示する工事情報です。
type ConstructionInfo struct {
	ConstructionName   string `json:"construction_name"`
	ConstructionNumber string `json:"construction_number,omitempty"`
	OrdererName        string `json:"orderer_name,omitempty"`
	ContractorName     string `json:"contractor_name"`
	Location           string `json:"location,omitempty"`
	StartDate          string `json:"start_date"`
	EndDate            string `json:"end_date"`
}

// FileStatistics は納品パッケージのファイル統計です。
type FileStatistics struct {
	PhotoCount          int   `json:"photo_count"`
	DrawingCount        int   `json:"drawing_count"`
	TotalSize           int64 `json:"total_size"`
	RepresentativeCount int   `json:"representative_count"`
}

// FileSizeEntry はファイルごとのサイズ表の1行です。
type FileSizeEntry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// FolderInfo はフォルダ一覧とファイルサイズ表です。
type FolderInfo struct {
	Folders []string        `json:"folders"`
	Files   []FileSizeEntry `json:"files"`
}

// ValidationSummary は検証結果の要約です。
type ValidationSummary struct {
	IsValid      bool `json:"is_valid"`
	ErrorCount   int  `json:"error_count"`
	WarningCount int  `json:"warning_count"`
}

// PhotoRow は写真一覧の表示用の1行です。
type PhotoRow struct {
	PhotoNumber      int    `json:"photo_number"`
	DeliveryFileName string `json:"delivery_file_name"`
	OriginalFileName string `json:"original_file_name"`
	Title            string `json:"title"`
	Category         string `json:"category"`
	ShootingDate     string `json:"shooting_date"`
	IsRepresentative bool   `json:"is_representative"`
	FileSize         int64  `json:"file_size"`
}

// DeliveryReport は納品パッケージのサマリーレポートです。
// 生成後に変更されることはなく、このサブシステム自身は永続化しません。
type DeliveryReport struct {
	GeneratedAt  time.Time          `json:"generated_at"`
	Construction ConstructionInfo   `json:"construction_info"`
	Statistics   FileStatistics     `json:"file_statistics"`
	FolderInfo   FolderInfo         `json:"folder_structure_info"`
	Validation   *ValidationSummary `json:"validation_summary,omitempty"`
	PhotoList    []PhotoRow         `json:"photo_list"`
}

// GenerateReport はフォルダ構成・メタデータ・検証結果からレポートを生成します。
// 検証結果はnilでも構いません（要約セクションが省略されます）。
func GenerateReport(fs *FolderStructure, meta *model.ExportMetadata, result *ValidationResult) *DeliveryReport {
	report := &DeliveryReport{
		GeneratedAt: time.Now(),
		Construction: ConstructionInfo{
			ConstructionName:   meta.ConstructionName,
			ConstructionNumber: meta.ConstructionNumber,
			OrdererName:        meta.OrdererName,
			ContractorName:     meta.ContractorName,
			Location:           meta.Location,
			StartDate:          meta.StartDate.Format("2006-01-02"),
			EndDate:            meta.EndDate.Format("2006-01-02"),
		},
		PhotoList: []PhotoRow{},
	}

	var totalSize int64
	representativeCount := 0
	files := make([]FileSizeEntry, 0, len(fs.PhotoFiles))
	for _, entry := range fs.PhotoFiles {
		totalSize += entry.FileSize
		if entry.Info.IsRepresentative {
			representativeCount++
		}
		files = append(files, FileSizeEntry{Path: entry.FilePath, Size: entry.FileSize})
		report.PhotoList = append(report.PhotoList, PhotoRow{
			PhotoNumber:      entry.Info.PhotoNumber,
			DeliveryFileName: entry.DeliveryFileName,
			OriginalFileName: entry.OriginalFileName,
			Title:            entry.Info.Title,
			Category:         entry.Info.Category,
			ShootingDate:     entry.Info.ShootingDate,
			IsRepresentative: entry.Info.IsRepresentative,
			FileSize:         entry.FileSize,
		})
	}
	for _, entry := range fs.DrawingFiles {
		totalSize += entry.FileSize
		files = append(files, FileSizeEntry{Path: entry.FilePath, Size: entry.FileSize})
	}

	report.Statistics = FileStatistics{
		PhotoCount:          len(fs.PhotoFiles),
		DrawingCount:        len(fs.DrawingFiles),
		TotalSize:           totalSize,
		RepresentativeCount: representativeCount,
	}

	folders := []string{fs.RootFolderName, fs.PicFolderPath}
	if fs.DraFolderPath != "" {
		folders = append(folders, fs.DraFolderPath)
	}
	report.FolderInfo = FolderInfo{Folders: folders, Files: files}

	if result != nil {
		report.Validation = &ValidationSummary{
			IsValid:      result.IsValid,
			ErrorCount:   len(result.Errors),
			WarningCount: len(result.Warnings),
		}
	}

	return report
}

// FormatFileSize はバイト数を2進単位（1024）で人間可読に整形します。
// バイトは小数なし、KB以上は小数2桁です。
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	units := []string{"KB", "MB", "GB"}
	div := int64(unit)
	exp := 0
	for n := size / unit; n >= unit && exp < len(units)-1; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %s", float64(size)/float64(div), units[exp])
}

// padRight は表示幅を基準に右側へ空白を詰めます。
// 全角文字（CJK）は幅2として数えるため、日本語のタイトルを含む列も揃います。
func padRight(s string, width int) string {
	pad := width - runewidth.StringWidth(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(" ", pad)
}

// FormatReportText はレポートを固定幅テキストとして描画します。
func FormatReportText(r *DeliveryReport) string {
	var sb strings.Builder
	line := strings.Repeat("=", 60)
	thin := strings.Repeat("-", 60)

	sb.WriteString(line + "\n")
	sb.WriteString(" 電子納品レポート\n")
	sb.WriteString(line + "\n")
	sb.WriteString("作成日時: " + r.GeneratedAt.Format("2006-01-02 15:04:05") + "\n")
	sb.WriteString("\n[工事情報]\n")
	sb.WriteString("  工事名称: " + r.Construction.ConstructionName + "\n")
	if r.Construction.ConstructionNumber != "" {
		sb.WriteString("  工事番号: " + r.Construction.ConstructionNumber + "\n")
	}
	if r.Construction.OrdererName != "" {
		sb.WriteString("  発注者: " + r.Construction.OrdererName + "\n")
	}
	sb.WriteString("  請負者: " + r.Construction.ContractorName + "\n")
	sb.WriteString("  工期: " + r.Construction.StartDate + " 〜 " + r.Construction.EndDate + "\n")

	sb.WriteString("\n[ファイル統計]\n")
	sb.WriteString(fmt.Sprintf("  写真枚数: %d\n", r.Statistics.PhotoCount))
	sb.WriteString(fmt.Sprintf("  図面枚数: %d\n", r.Statistics.DrawingCount))
	sb.WriteString(fmt.Sprintf("  代表写真: %d\n", r.Statistics.RepresentativeCount))
	sb.WriteString("  合計サイズ: " + FormatFileSize(r.Statistics.TotalSize) + "\n")

	if r.Validation != nil {
		sb.WriteString("\n[検証結果]\n")
		if r.Validation.IsValid {
			sb.WriteString("  判定: 合格\n")
		} else {
			sb.WriteString("  判定: 不合格\n")
		}
		sb.WriteString(fmt.Sprintf("  エラー: %d件 / 警告: %d件\n", r.Validation.ErrorCount, r.Validation.WarningCount))
	}

	sb.WriteString("\n[写真一覧]\n")
	sb.WriteString(thin + "\n")
	sb.WriteString("  " + padRight("No.", 6) + padRight("ファイル名", 14) + padRight("タイトル", 24) + padRight("撮影日", 12) + "サイズ\n")
	sb.WriteString(thin + "\n")
	for _, row := range r.PhotoList {
		sb.WriteString("  " +
			padRight(strconv.Itoa(row.PhotoNumber), 6) +
			padRight(row.DeliveryFileName, 14) +
			padRight(row.Title, 24) +
			padRight(row.ShootingDate, 12) +
			FormatFileSize(row.FileSize) + "\n")
	}
	sb.WriteString(line + "\n")
	return sb.String()
}

// FormatReportJSON はレポートをインデント付きJSONに変換します。
func FormatReportJSON(r *DeliveryReport) (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FormatReportCSV は写真一覧をCSVとして出力します。
// タイトルは埋め込まれた引用符を二重化して引用します。
func FormatReportCSV(r *DeliveryReport) string {
	var sb strings.Builder
	sb.WriteString("photo_number,delivery_file_name,original_file_name,title,category,shooting_date,is_representative,file_size\n")
	for _, row := range r.PhotoList {
		title := `"` + strings.ReplaceAll(row.Title, `"`, `""`) + `"`
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%s,%s,%t,%d\n",
			row.PhotoNumber,
			row.DeliveryFileName,
			row.OriginalFileName,
			title,
			row.Category,
			row.ShootingDate,
			row.IsRepresentative,
			row.FileSize,
		))
	}
	return sb.String()
}
