// Package imagemeta は、写真ファイルからのメタデータ抽出を提供します。
// EXIFの撮影日時とGPS位置を読み取り、写真登録時の自動入力に使います。
package imagemeta

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"time"

	_ "image/jpeg"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	_ "golang.org/x/image/tiff"
)

// ErrNoExif はEXIFデータが見つからない場合のエラーです。
// EXIFのない写真は正常な入力であり、呼び出し側はこのエラーを無視して構いません。
var ErrNoExif = errors.New("no EXIF data found")

// Metadata は写真から抽出したメタデータです。
// 取得できなかった項目はゼロ値のままになります。
type Metadata struct {
	ShootingDate time.Time // EXIFのDateTimeOriginal
	Latitude     float64
	Longitude    float64
	HasLocation  bool
	Width        int
	Height       int
}

// Extract は画像のバイト列からメタデータを抽出します。
// 画像の寸法はEXIFの有無にかかわらず読み取りを試みます。
// EXIFが存在しない場合はErrNoExifを返しますが、寸法は結果に含まれます。
func Extract(data []byte) (*Metadata, error) {
	meta := &Metadata{}

	// 寸法はデコードせずヘッダーのみから取得する
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		meta.Width = cfg.Width
		meta.Height = cfg.Height
	}

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return meta, ErrNoExif
	}

	im := exifcommon.NewIfdMapping()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		return meta, fmt.Errorf("failed to load standard IFDs: %w", err)
	}
	ti := exif.NewTagIndex()

	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return meta, fmt.Errorf("failed to collect EXIF tags: %w", err)
	}

	meta.ShootingDate = extractShootingDate(index)
	meta.Latitude, meta.Longitude, meta.HasLocation = extractGPS(index)

	return meta, nil
}

// extractShootingDate はDateTimeOriginalを優先し、なければDateTimeを使います。
func extractShootingDate(index exif.IfdIndex) time.Time {
	if exifIfd, err := index.RootIfd.ChildWithIfdPath(exifcommon.IfdExifStandardIfdIdentity); err == nil {
		if t, ok := findDateTag(exifIfd, "DateTimeOriginal"); ok {
			return t
		}
	}
	if t, ok := findDateTag(index.RootIfd, "DateTime"); ok {
		return t
	}
	return time.Time{}
}

// findDateTag はEXIFの日時タグ（"2006:01:02 15:04:05"形式）を読み取ります。
func findDateTag(ifd *exif.Ifd, name string) (time.Time, bool) {
	tags, err := ifd.FindTagWithName(name)
	if err != nil || len(tags) == 0 {
		return time.Time{}, false
	}
	val, err := tags[0].Value()
	if err != nil {
		return time.Time{}, false
	}
	s, ok := val.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006:01:02 15:04:05", s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// extractGPS はGPS IFDから10進数の緯度経度を読み取ります。
func extractGPS(index exif.IfdIndex) (float64, float64, bool) {
	gpsIfd, err := index.RootIfd.ChildWithIfdPath(exifcommon.IfdGpsInfoStandardIfdIdentity)
	if err != nil {
		return 0, 0, false
	}
	gi, err := gpsIfd.GpsInfo()
	if err != nil {
		return 0, 0, false
	}
	lat := gi.Latitude.Decimal()
	lon := gi.Longitude.Decimal()
	if lat == 0 && lon == 0 {
		return 0, 0, false
	}
	return lat, lon, true
}
