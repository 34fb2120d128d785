package imageprep

import "style-transform-server/modules/common/utils"

const (
	MaxFileSize   = 10 * 1024 * 1024 // 10MB
	MaxDimension  = 1024             // 긴 변 기준 최대 크기
	EncodeQuality = 90               // JPEG/WebP 재인코딩 품질
)

// SupportedTypes - 업로드 허용 MIME 타입
var SupportedTypes = []string{utils.MimeJPEG, utils.MimePNG, utils.MimeWebP}

// Source - 업로드된 원본 파일
type Source struct {
	Name     string
	MimeType string
	Data     []byte
}

// Size - 원본 바이트 크기
func (s Source) Size() int64 {
	return int64(len(s.Data))
}

// SourceInfo - 원본 파일 메타데이터 (이름, 크기)
type SourceInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// UploadedImage - 리사이즈된 이미지. PreviewURI 는 EncodedPayload 에 data URI prefix 만 붙인 것
type UploadedImage struct {
	Source         SourceInfo `json:"source"`
	PreviewURI     string     `json:"previewUri"`
	EncodedPayload string     `json:"-"`
	MimeType       string     `json:"mimeType"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
}
