package delivery

import (
	"fmt"
	"math"
)

// FormatLatitudeDMS は10進数の緯度を基準の度分秒形式に変換します。
// 半球記号（N/S）+ 度3桁 + 分2桁 + 秒（小数3桁）のゼロ埋め表記です。
// 例: 35.689501 → "N0354122.204"
func FormatLatitudeDMS(lat float64) string {
	hemisphere := "N"
	if lat < 0 {
		hemisphere = "S"
	}
	d, m, s := toDMS(math.Abs(lat))
	return fmt.Sprintf("%s%03d%02d%06.3f", hemisphere, d, m, s)
}

// FormatLongitudeDMS は10進数の経度を度分秒形式に変換します。
// 経度は度を3桁でゼロ埋めします。例: 139.691722 → "E1394130.199"
func FormatLongitudeDMS(lon float64) string {
	hemisphere := "E"
	if lon < 0 {
		hemisphere = "W"
	}
	d, m, s := toDMS(math.Abs(lon))
	return fmt.Sprintf("%s%03d%02d%06.3f", hemisphere, d, m, s)
}

// toDMS は絶対値の10進度を度・分・秒に分解します。
// 秒の丸めで60に繰り上がった場合は分・度に伝播させます。
func toDMS(deg float64) (int, int, float64) {
	d := int(deg)
	minFloat := (deg - float64(d)) * 60
	m := int(minFloat)
	s := (minFloat - float64(m)) * 60

	// 小数3桁で丸めた結果の繰り上がりを処理
	s = math.Round(s*1000) / 1000
	if s >= 60 {
		s -= 60
		m++
	}
	if m >= 60 {
		m -= 60
		d++
	}
	return d, m, s
}
