package transform

// TransformRequest - POST /api/transform 요청
type TransformRequest struct {
	ImageBase64 string `json:"imageBase64"` // base64 인코딩된 이미지 데이터 (data URI prefix 없음)
	MimeType    string `json:"mimeType"`
	StylePrompt string `json:"stylePrompt"` // 스타일 카탈로그의 instruction
}

// TransformResponse - 성공 시 image/mimeType, 실패 시 error 만 채워짐
type TransformResponse struct {
	Image    string `json:"image,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ImageArtifact - 모델이 돌려준 첫 번째 inline 이미지
type ImageArtifact struct {
	Data     []byte
	MimeType string
}
