package qrcode

import (
	"net/url"
	"strings"
)

// Encoder 二维码生成服务，(code, verifyURL) -> 图片地址
type Encoder interface {
	Encode(code, verifyURL string) string
}

// LinkEncoder 不落图片，只生成扫码落地页链接，由前端渲染二维码
type LinkEncoder struct{}

func NewLinkEncoder() *LinkEncoder {
	return &LinkEncoder{}
}

func (LinkEncoder) Encode(code, verifyURL string) string {
	if verifyURL == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(verifyURL, "?") {
		sep = "&"
	}
	return verifyURL + sep + "code=" + url.QueryEscape(code)
}
