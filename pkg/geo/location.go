package geo

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Location 扫码时前端上报的位置
type Location struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy,omitempty"`
}

// ParseLocation 兼容 {lat,lng} / {latitude,longitude} / {coords:{...}} 几种上报格式，
// 解析不出合法坐标时返回 false
func ParseLocation(raw []byte) (*Location, bool) {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return nil, false
	}
	root := gjson.ParseBytes(raw)
	if coords := root.Get("coords"); coords.IsObject() {
		root = coords
	}

	lat := first(root, "lat", "latitude")
	lng := first(root, "lng", "lon", "longitude")
	if !lat.Exists() || !lng.Exists() {
		return nil, false
	}
	loc := &Location{
		Lat:      lat.Float(),
		Lng:      lng.Float(),
		Accuracy: root.Get("accuracy").Float(),
	}
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
		return nil, false
	}
	return loc, true
}

// JSON 入库用的规范化格式
func (l *Location) JSON() []byte {
	b, _ := json.Marshal(l)
	return b
}

func first(r gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
